package stats

import (
	"math"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
)

// Summary is the normalized per-profile record persisted alongside the score.
// Exactly one platform branch is set.
type Summary struct {
	Platform   platform.Platform  `json:"platform"`
	LeetCode   *LeetCodeSummary   `json:"leetcode,omitempty"`
	Codeforces *CodeforcesSummary `json:"codeforces,omitempty"`
}

// Record returns the populated platform branch, or nil.
func (s *Summary) Record() any {
	if s == nil {
		return nil
	}
	switch {
	case s.LeetCode != nil:
		return s.LeetCode
	case s.Codeforces != nil:
		return s.Codeforces
	default:
		return nil
	}
}

type LeetCodeSummary struct {
	Easy             int      `json:"easy"`
	Medium           int      `json:"medium"`
	Hard             int      `json:"hard"`
	TotalSolved      int      `json:"total_solved"`
	ContestRating    float64  `json:"contest_rating"`
	ContestsAttended int      `json:"contests_attended"`
	GlobalRanking    int      `json:"global_ranking"`
	SolvedSlugs      []string `json:"solved_slugs"`
}

type CodeforcesSummary struct {
	Rating           int    `json:"rating"`
	MaxRating        int    `json:"max_rating"`
	Rank             string `json:"rank"`
	ProblemsSolved   int    `json:"problems_solved"`
	ContestsAttended int    `json:"contests_attended"`
	AvgProblemRating int    `json:"avg_problem_rating"`
}

// Extract builds a Summary from a raw payload. It returns nil only when the
// payload's primary object is absent, which callers treat as a failed fetch.
// A present but empty primary object still yields a (zeroed) summary.
func Extract(p platform.Payload) *Summary {
	switch p.Platform {
	case platform.LeetCode:
		return extractLeetCode(p.LeetCode)
	case platform.Codeforces:
		return extractCodeforces(p.Codeforces)
	default:
		return nil
	}
}

func extractLeetCode(data *platform.LeetCodePayload) *Summary {
	if data == nil || data.MatchedUser == nil {
		return nil
	}

	summary := &LeetCodeSummary{SolvedSlugs: solvedSlugUnion(data)}
	if stats := data.MatchedUser.SubmitStats; stats != nil {
		for _, item := range stats.AcSubmissionNum {
			switch item.Difficulty {
			case "Easy":
				summary.Easy = item.Count
			case "Medium":
				summary.Medium = item.Count
			case "Hard":
				summary.Hard = item.Count
			}
		}
	}
	summary.TotalSolved = summary.Easy + summary.Medium + summary.Hard

	if contest := data.UserContestRanking; contest != nil {
		if contest.Rating != 0 {
			summary.ContestRating = math.Round(contest.Rating*100) / 100
		}
		summary.ContestsAttended = contest.AttendedContestsCount
	}
	if profile := data.MatchedUser.Profile; profile != nil {
		summary.GlobalRanking = profile.Ranking
	}

	return &Summary{Platform: platform.LeetCode, LeetCode: summary}
}

// solvedSlugUnion merges accepted slugs from both recent-submission feeds,
// keeping first-seen order.
func solvedSlugUnion(data *platform.LeetCodePayload) []string {
	seen := map[string]struct{}{}
	slugs := []string{}
	add := func(slug string) {
		if slug == "" {
			return
		}
		if _, ok := seen[slug]; ok {
			return
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	for _, sub := range data.RecentAcSubmission {
		add(sub.TitleSlug)
	}
	for _, sub := range data.RecentSubmission {
		if sub.Accepted() {
			add(sub.TitleSlug)
		}
	}
	return slugs
}

func extractCodeforces(data *platform.CodeforcesPayload) *Summary {
	if data == nil || data.User == nil {
		return nil
	}

	solved := map[string]struct{}{}
	ratingSum := 0
	ratingCount := 0
	for _, sub := range data.Submissions {
		if !sub.Accepted() {
			continue
		}
		key, ok := sub.SolvedKey()
		if !ok {
			continue
		}
		solved[key] = struct{}{}
		if sub.Problem.Rating > 0 {
			ratingSum += sub.Problem.Rating
			ratingCount++
		}
	}

	avgProblemRating := 0
	if ratingCount > 0 {
		avgProblemRating = int(math.Round(float64(ratingSum) / float64(ratingCount)))
	}

	maxRating := data.User.MaxRating
	if maxRating == 0 {
		maxRating = data.User.Rating
	}
	rank := data.User.Rank
	if rank == "" {
		rank = "unrated"
	}

	return &Summary{
		Platform: platform.Codeforces,
		Codeforces: &CodeforcesSummary{
			Rating:           data.User.Rating,
			MaxRating:        maxRating,
			Rank:             rank,
			ProblemsSolved:   len(solved),
			ContestsAttended: len(data.RatingHistory),
			AvgProblemRating: avgProblemRating,
		},
	}
}
