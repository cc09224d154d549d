package stats

import (
	"reflect"
	"testing"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

func TestExtract_LeetCode(t *testing.T) {
	t.Parallel()

	payload := platform.NewLeetCodePayload(&platform.LeetCodePayload{
		MatchedUser: &platform.LeetCodeUser{
			Username: "avani",
			Profile:  &platform.LeetCodeProfile{Ranking: 42000},
			SubmitStats: &platform.LeetCodeSubmitStats{
				AcSubmissionNum: []platform.LeetCodeDifficultyCount{
					{Difficulty: "Easy", Count: 30},
					{Difficulty: "Medium", Count: 12},
					{Difficulty: "Hard", Count: 3},
				},
			},
		},
		UserContestRanking: &platform.LeetCodeContest{Rating: 1543.216, AttendedContestsCount: 7},
		RecentAcSubmission: []platform.LeetCodeSubmission{
			{TitleSlug: "two-sum", StatusDisplay: "Accepted"},
			{TitleSlug: "jump-game", StatusDisplay: "Accepted"},
			{TitleSlug: "two-sum", StatusDisplay: "Accepted"},
		},
		RecentSubmission: []platform.LeetCodeSubmission{
			{TitleSlug: "word-break", StatusDisplay: "Accepted"},
			{TitleSlug: "lru-cache", StatusDisplay: "Wrong Answer"},
			{TitleSlug: "jump-game", StatusDisplay: "Accepted"},
			{TitleSlug: "", StatusDisplay: "Accepted"},
		},
	})

	summary := Extract(payload)
	if summary == nil || summary.LeetCode == nil {
		t.Fatal("expected a leetcode summary")
	}
	got := summary.LeetCode

	if got.Easy != 30 || got.Medium != 12 || got.Hard != 3 {
		t.Fatalf("difficulty counts = %d/%d/%d", got.Easy, got.Medium, got.Hard)
	}
	if got.TotalSolved != 45 {
		t.Fatalf("TotalSolved = %d, want 45", got.TotalSolved)
	}
	if got.ContestRating != 1543.22 {
		t.Fatalf("ContestRating = %v, want 1543.22", got.ContestRating)
	}
	if got.ContestsAttended != 7 {
		t.Fatalf("ContestsAttended = %d, want 7", got.ContestsAttended)
	}
	if got.GlobalRanking != 42000 {
		t.Fatalf("GlobalRanking = %d, want 42000", got.GlobalRanking)
	}

	wantSlugs := []string{"two-sum", "jump-game", "word-break"}
	if !reflect.DeepEqual(got.SolvedSlugs, wantSlugs) {
		t.Fatalf("SolvedSlugs = %v, want %v", got.SolvedSlugs, wantSlugs)
	}
}

func TestExtract_LeetCode_MissingUserReturnsNil(t *testing.T) {
	t.Parallel()

	payload := platform.NewLeetCodePayload(&platform.LeetCodePayload{})
	if got := Extract(payload); got != nil {
		t.Fatalf("expected nil summary for absent matched user, got %+v", got)
	}
	if got := Extract(platform.Payload{Platform: platform.LeetCode}); got != nil {
		t.Fatalf("expected nil summary for nil payload, got %+v", got)
	}
}

func TestExtract_Codeforces(t *testing.T) {
	t.Parallel()

	payload := platform.NewCodeforcesPayload(&platform.CodeforcesPayload{
		User:          &platform.CodeforcesUser{Handle: "ravi", Rating: 1820, MaxRating: 1900, Rank: "expert"},
		RatingHistory: make([]platform.CodeforcesRatingChange, 10),
		Submissions: []platform.CodeforcesSubmission{
			{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 1, Index: "A", Rating: 800}},
			{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 1, Index: "A", Rating: 800}},
			{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 2, Index: "B", Rating: 1500}},
			{Verdict: "TIME_LIMIT_EXCEEDED", Problem: &platform.CodeforcesProblem{ContestID: 3, Index: "C", Rating: 2400}},
			{Verdict: platform.VerdictOK, Problem: &platform.CodeforcesProblem{ContestID: 4, Index: "D"}},
		},
	})

	summary := Extract(payload)
	if summary == nil || summary.Codeforces == nil {
		t.Fatal("expected a codeforces summary")
	}
	got := summary.Codeforces

	if got.Rating != 1820 || got.MaxRating != 1900 {
		t.Fatalf("ratings = %d/%d", got.Rating, got.MaxRating)
	}
	if got.Rank != "expert" {
		t.Fatalf("Rank = %q", got.Rank)
	}
	if got.ProblemsSolved != 3 {
		t.Fatalf("ProblemsSolved = %d, want 3", got.ProblemsSolved)
	}
	if got.ContestsAttended != 10 {
		t.Fatalf("ContestsAttended = %d, want 10", got.ContestsAttended)
	}
	// Average over the rated accepted submissions: (800+800+1500)/3.
	if got.AvgProblemRating != 1033 {
		t.Fatalf("AvgProblemRating = %d, want 1033", got.AvgProblemRating)
	}
}

func TestExtract_Codeforces_EmptyUserStillYieldsSummary(t *testing.T) {
	t.Parallel()

	payload := platform.NewCodeforcesPayload(&platform.CodeforcesPayload{
		User:        &platform.CodeforcesUser{},
		Submissions: []platform.CodeforcesSubmission{},
	})

	summary := Extract(payload)
	if summary == nil || summary.Codeforces == nil {
		t.Fatal("expected a summary for a present but empty user object")
	}
	got := summary.Codeforces

	if got.ProblemsSolved != 0 || got.AvgProblemRating != 0 {
		t.Fatalf("expected zeroed counters, got %+v", got)
	}
	if got.Rank != "unrated" {
		t.Fatalf("Rank = %q, want unrated", got.Rank)
	}
}

func TestExtract_Codeforces_MissingUserReturnsNil(t *testing.T) {
	t.Parallel()

	payload := platform.NewCodeforcesPayload(&platform.CodeforcesPayload{})
	if got := Extract(payload); got != nil {
		t.Fatalf("expected nil summary for absent user, got %+v", got)
	}
}

func TestSummary_Record(t *testing.T) {
	t.Parallel()

	var nilSummary *Summary
	if nilSummary.Record() != nil {
		t.Fatal("nil summary should have a nil record")
	}

	lc := &Summary{Platform: platform.LeetCode, LeetCode: &LeetCodeSummary{TotalSolved: 5}}
	if _, ok := lc.Record().(*LeetCodeSummary); !ok {
		t.Fatalf("Record = %T, want *LeetCodeSummary", lc.Record())
	}

	cf := &Summary{Platform: platform.Codeforces, Codeforces: &CodeforcesSummary{Rating: 1200}}
	if _, ok := cf.Record().(*CodeforcesSummary); !ok {
		t.Fatalf("Record = %T, want *CodeforcesSummary", cf.Record())
	}
}
