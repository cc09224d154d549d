package scoring

import (
	"strconv"
	"testing"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

func leetCodeFixture() *platform.LeetCodePayload {
	return &platform.LeetCodePayload{
		MatchedUser: &platform.LeetCodeUser{
			Username: "avani",
			Profile:  &platform.LeetCodeProfile{Ranking: 250000},
			SubmitStats: &platform.LeetCodeSubmitStats{
				AcSubmissionNum: []platform.LeetCodeDifficultyCount{
					{Difficulty: "Easy", Count: 50},
					{Difficulty: "Medium", Count: 20},
					{Difficulty: "Hard", Count: 5},
				},
			},
		},
		UserContestRanking: &platform.LeetCodeContest{
			Rating:                1650.42,
			AttendedContestsCount: 12,
		},
	}
}

func codeforcesFixture() *platform.CodeforcesPayload {
	subs := make([]platform.CodeforcesSubmission, 0, 40)
	for i := 0; i < 40; i++ {
		subs = append(subs, platform.CodeforcesSubmission{
			ID:      int64(i + 1),
			Verdict: platform.VerdictOK,
			Problem: &platform.CodeforcesProblem{ContestID: int64(1700 + i), Index: "A"},
		})
	}
	return &platform.CodeforcesPayload{
		User:          &platform.CodeforcesUser{Handle: "ravi", Rating: 1820, MaxRating: 1900, Rank: "expert"},
		RatingHistory: make([]platform.CodeforcesRatingChange, 10),
		Submissions:   subs,
	}
}

func TestLeetCodeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*platform.LeetCodePayload)
		want   float64
	}{
		{
			name:   "full profile",
			mutate: func(*platform.LeetCodePayload) {},
			// 13.5 + 165.042 + 24 + 20 rounded once at the end.
			want: 222.54,
		},
		{
			name: "problems only without contest or ranking",
			mutate: func(p *platform.LeetCodePayload) {
				p.UserContestRanking = nil
				p.MatchedUser.Profile = nil
			},
			want: 13.5,
		},
		{
			name: "problem term clamps at 400",
			mutate: func(p *platform.LeetCodePayload) {
				p.UserContestRanking = nil
				p.MatchedUser.Profile = nil
				p.MatchedUser.SubmitStats.AcSubmissionNum = []platform.LeetCodeDifficultyCount{
					{Difficulty: "Easy", Count: 100000},
				}
			},
			want: 400,
		},
		{
			name: "contest and consistency terms clamp independently",
			mutate: func(p *platform.LeetCodePayload) {
				p.MatchedUser.SubmitStats = nil
				p.MatchedUser.Profile = nil
				p.UserContestRanking.Rating = 9000
				p.UserContestRanking.AttendedContestsCount = 500
			},
			want: 500,
		},
		{
			name: "zero ranking earns no bonus",
			mutate: func(p *platform.LeetCodePayload) {
				p.UserContestRanking = nil
				p.MatchedUser.Profile.Ranking = 0
			},
			want: 13.5,
		},
		{
			name: "top thousand ranking bonus",
			mutate: func(p *platform.LeetCodePayload) {
				p.UserContestRanking = nil
				p.MatchedUser.Profile.Ranking = 900
			},
			want: 113.5,
		},
		{
			name: "missing matched user scores zero",
			mutate: func(p *platform.LeetCodePayload) {
				p.MatchedUser = nil
			},
			want: 0,
		},
		{
			name: "missing submit stats still scores contest terms",
			mutate: func(p *platform.LeetCodePayload) {
				p.MatchedUser.SubmitStats = nil
				p.MatchedUser.Profile = nil
			},
			// 165.042 + 24 rounded to 189.04.
			want: 189.04,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := leetCodeFixture()
			tc.mutate(data)

			if got := LeetCodeScore(data); got != tc.want {
				t.Fatalf("LeetCodeScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCodeforcesScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*platform.CodeforcesPayload)
		want   float64
	}{
		{
			name:   "expert with forty distinct solves",
			mutate: func(*platform.CodeforcesPayload) {},
			// 253.33... + 30 + 80 + 50 rounded once.
			want: 413.33,
		},
		{
			name: "max rating falls back to current rating",
			mutate: func(p *platform.CodeforcesPayload) {
				p.User.MaxRating = 0
				p.User.Rating = 1500
				p.User.Rank = "specialist"
				p.RatingHistory = nil
				p.Submissions = nil
			},
			want: 240,
		},
		{
			name: "unknown rank gets the default bonus",
			mutate: func(p *platform.CodeforcesPayload) {
				p.User.Rank = "tourist-tier"
				p.User.Rating = 0
				p.User.MaxRating = 0
				p.RatingHistory = nil
				p.Submissions = nil
			},
			want: 10,
		},
		{
			name: "rating term clamps at 400",
			mutate: func(p *platform.CodeforcesPayload) {
				p.User.MaxRating = 4000
				p.User.Rank = "legendary grandmaster"
				p.RatingHistory = nil
				p.Submissions = nil
			},
			want: 500,
		},
		{
			name: "duplicate solves count once",
			mutate: func(p *platform.CodeforcesPayload) {
				p.User = &platform.CodeforcesUser{Rank: "newbie"}
				p.RatingHistory = nil
				p.Submissions = []platform.CodeforcesSubmission{
					{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 1, Index: "A"}},
					{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 1, Index: "A"}},
					{Verdict: "WRONG_ANSWER", Problem: &platform.CodeforcesProblem{ContestID: 1, Index: "B"}},
					{Verdict: platform.VerdictOK, Problem: nil},
				}
			},
			want: 22,
		},
		{
			name: "missing user scores zero",
			mutate: func(p *platform.CodeforcesPayload) {
				p.User = nil
			},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := codeforcesFixture()
			tc.mutate(data)

			if got := CodeforcesScore(data); got != tc.want {
				t.Fatalf("CodeforcesScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScore_EmptyPayloads(t *testing.T) {
	t.Parallel()

	if got := Score(platform.Payload{Platform: platform.LeetCode}); got != 0 {
		t.Fatalf("empty leetcode payload scored %v, want 0", got)
	}
	if got := Score(platform.Payload{Platform: platform.Codeforces}); got != 0 {
		t.Fatalf("empty codeforces payload scored %v, want 0", got)
	}
	if got := Score(platform.Payload{Platform: platform.Platform("atcoder")}); got != 0 {
		t.Fatalf("unknown platform scored %v, want 0", got)
	}
}

func TestScore_NeverNegative(t *testing.T) {
	t.Parallel()

	data := codeforcesFixture()
	data.User.Rating = -500
	data.User.MaxRating = -200
	data.RatingHistory = nil
	data.Submissions = nil
	data.User.Rank = "newbie"

	if got := CodeforcesScore(data); got != 20 {
		t.Fatalf("negative ratings should clamp to the rank bonus alone, got %v", got)
	}
}

func TestDistinctSolvedCount_LargeSet(t *testing.T) {
	t.Parallel()

	subs := make([]platform.CodeforcesSubmission, 0, 300)
	for i := 0; i < 300; i++ {
		subs = append(subs, platform.CodeforcesSubmission{
			Verdict: platform.VerdictOK,
			Problem: &platform.CodeforcesProblem{ContestID: int64(i%150 + 1), Index: "A" + strconv.Itoa(i%150)},
		})
	}

	if got := DistinctSolvedCount(subs); got != 150 {
		t.Fatalf("DistinctSolvedCount = %d, want 150", got)
	}
}
