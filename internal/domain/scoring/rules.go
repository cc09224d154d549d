package scoring

import (
	"math"
	"strings"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

// Accepted-problem weights by difficulty.
const (
	easyWeight   = 1
	mediumWeight = 3
	hardWeight   = 5
)

// codeforcesRankBonus maps the lowercase Codeforces rank name to its bonus.
// Unknown or missing ranks fall back to 10.
var codeforcesRankBonus = map[string]float64{
	"legendary grandmaster":     100,
	"international grandmaster": 95,
	"grandmaster":               90,
	"international master":      80,
	"master":                    70,
	"candidate master":          60,
	"expert":                    50,
	"specialist":                40,
	"pupil":                     30,
	"newbie":                    20,
}

const defaultRankBonus = 10.0

// Score computes the composite score for a raw platform payload. It is a
// total function: missing or partial payloads degrade to smaller scores,
// never to an error. Upstream profiles are frequently partial (privacy
// restricted or rate limited) and students must still be rankable with
// whatever signal is present.
func Score(p platform.Payload) float64 {
	switch p.Platform {
	case platform.LeetCode:
		return LeetCodeScore(p.LeetCode)
	case platform.Codeforces:
		return CodeforcesScore(p.Codeforces)
	default:
		return 0
	}
}

// LeetCodeScore = clamp(problemPoints/10, 400) + clamp(rating/10, 300) +
// clamp(attended*2, 200) + rankingBonus, rounded to 2dp.
func LeetCodeScore(data *platform.LeetCodePayload) float64 {
	if data == nil || data.MatchedUser == nil {
		return 0
	}

	easy, medium, hard := acCountsByDifficulty(data.MatchedUser)
	problemPoints := float64(easy*easyWeight + medium*mediumWeight + hard*hardWeight)
	problemTerm := clampTerm(problemPoints/10, 400)

	contestTerm := 0.0
	consistencyTerm := 0.0
	if contest := data.UserContestRanking; contest != nil {
		contestTerm = clampTerm(contest.Rating/10, 300)
		consistencyTerm = clampTerm(float64(contest.AttendedContestsCount)*2, 200)
	}

	return round2(problemTerm + contestTerm + consistencyTerm + leetCodeRankingBonus(data.MatchedUser))
}

// CodeforcesScore = clamp(maxRating/7.5, 400) + clamp(contests*3, 300) +
// clamp(distinctSolved*2, 200) + rankBonus, rounded to 2dp.
func CodeforcesScore(data *platform.CodeforcesPayload) float64 {
	if data == nil || data.User == nil {
		return 0
	}

	maxRating := data.User.MaxRating
	if maxRating == 0 {
		maxRating = data.User.Rating
	}
	ratingTerm := clampTerm(float64(maxRating)/7.5, 400)
	contestTerm := clampTerm(float64(len(data.RatingHistory))*3, 300)
	problemTerm := clampTerm(float64(DistinctSolvedCount(data.Submissions))*2, 200)

	bonus, ok := codeforcesRankBonus[strings.ToLower(data.User.Rank)]
	if !ok {
		bonus = defaultRankBonus
	}

	return round2(ratingTerm + contestTerm + problemTerm + bonus)
}

// DistinctSolvedCount counts unique solved problem identities among accepted
// submissions. Entries without a derivable identity are skipped.
func DistinctSolvedCount(submissions []platform.CodeforcesSubmission) int {
	seen := make(map[string]struct{}, len(submissions))
	for _, sub := range submissions {
		if !sub.Accepted() {
			continue
		}
		key, ok := sub.SolvedKey()
		if !ok {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

func acCountsByDifficulty(user *platform.LeetCodeUser) (easy, medium, hard int) {
	if user == nil || user.SubmitStats == nil {
		return 0, 0, 0
	}
	for _, item := range user.SubmitStats.AcSubmissionNum {
		switch item.Difficulty {
		case "Easy":
			easy = item.Count
		case "Medium":
			medium = item.Count
		case "Hard":
			hard = item.Count
		}
	}
	return easy, medium, hard
}

// Ranking bonus steps by global ranking. A missing or zero ranking yields no
// bonus; any present ranking is worth at least 20.
func leetCodeRankingBonus(user *platform.LeetCodeUser) float64 {
	if user == nil || user.Profile == nil || user.Profile.Ranking <= 0 {
		return 0
	}
	switch ranking := user.Profile.Ranking; {
	case ranking <= 1000:
		return 100
	case ranking <= 10000:
		return 80
	case ranking <= 50000:
		return 60
	case ranking <= 100000:
		return 40
	default:
		return 20
	}
}

func clampTerm(value, limit float64) float64 {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}

// round2 rounds half away from zero to 2 decimal places. Rounding happens
// once, on the final sum, never per term.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
