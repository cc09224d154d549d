package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

// Platform identifies a supported competitive-programming site.
type Platform string

const (
	LeetCode   Platform = "leetcode"
	Codeforces Platform = "codeforces"
)

var All = map[Platform]struct{}{
	LeetCode:   {},
	Codeforces: {},
}

func Parse(raw string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := All[p]
	return p, ok
}

// Payload is the raw API response for one student profile, tagged by platform.
// Exactly one of the platform fields is set; the other stays nil.
type Payload struct {
	Platform   Platform
	LeetCode   *LeetCodePayload
	Codeforces *CodeforcesPayload
}

func NewLeetCodePayload(p *LeetCodePayload) Payload {
	return Payload{Platform: LeetCode, LeetCode: p}
}

func NewCodeforcesPayload(p *CodeforcesPayload) Payload {
	return Payload{Platform: Codeforces, Codeforces: p}
}

// Decode parses a stored raw JSON blob back into a typed payload.
func Decode(p Platform, raw []byte) (Payload, error) {
	switch p {
	case LeetCode:
		var payload LeetCodePayload
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			return Payload{}, fmt.Errorf("decode leetcode payload: %w", err)
		}
		return NewLeetCodePayload(&payload), nil
	case Codeforces:
		var payload CodeforcesPayload
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			return Payload{}, fmt.Errorf("decode codeforces payload: %w", err)
		}
		return NewCodeforcesPayload(&payload), nil
	default:
		return Payload{}, fmt.Errorf("unsupported platform %q", p)
	}
}

// HasData reports whether the platform's primary profile object is present.
// Absence means "no data for this handle", not an error.
func (p Payload) HasData() bool {
	switch p.Platform {
	case LeetCode:
		return p.LeetCode != nil && p.LeetCode.MatchedUser != nil
	case Codeforces:
		return p.Codeforces != nil && p.Codeforces.User != nil
	default:
		return false
	}
}

// LeetCodePayload mirrors the subset of the LeetCode GraphQL profile query the
// service consumes. recentAcSubmissionList is capped at 100 entries by the
// upstream API, so anything derived from it (activity windows, solved slugs)
// under-counts very active users. That ceiling is inherent to the source data
// and is not compensated for.
type LeetCodePayload struct {
	MatchedUser        *LeetCodeUser        `json:"matchedUser"`
	UserContestRanking *LeetCodeContest     `json:"userContestRanking"`
	RecentAcSubmission []LeetCodeSubmission `json:"recentAcSubmissionList"`
	RecentSubmission   []LeetCodeSubmission `json:"recentSubmissionList"`
}

type LeetCodeUser struct {
	Username    string               `json:"username"`
	Profile     *LeetCodeProfile     `json:"profile"`
	SubmitStats *LeetCodeSubmitStats `json:"submitStatsGlobal"`
}

type LeetCodeProfile struct {
	Ranking int `json:"ranking"`
}

type LeetCodeSubmitStats struct {
	AcSubmissionNum []LeetCodeDifficultyCount `json:"acSubmissionNum"`
}

type LeetCodeDifficultyCount struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type LeetCodeContest struct {
	Rating                float64 `json:"rating"`
	AttendedContestsCount int     `json:"attendedContestsCount"`
}

// LeetCodeSubmission carries one recent submission. Timestamp is unix seconds
// encoded as a string, which is how the GraphQL API ships it.
type LeetCodeSubmission struct {
	Title         string `json:"title"`
	TitleSlug     string `json:"titleSlug"`
	Timestamp     string `json:"timestamp"`
	StatusDisplay string `json:"statusDisplay"`
}

const statusDisplayAccepted = "Accepted"

func (s LeetCodeSubmission) Accepted() bool {
	return s.StatusDisplay == statusDisplayAccepted
}

// SolveTime parses the submission timestamp. ok is false for missing or
// malformed values; callers skip such entries.
func (s LeetCodeSubmission) SolveTime() (time.Time, bool) {
	raw := strings.TrimSpace(s.Timestamp)
	if raw == "" {
		return time.Time{}, false
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0).UTC(), true
}

// CodeforcesPayload bundles the three Codeforces REST responses fetched for
// one handle: user.info, user.rating and user.status.
type CodeforcesPayload struct {
	User          *CodeforcesUser          `json:"user"`
	RatingHistory []CodeforcesRatingChange `json:"ratingHistory"`
	Submissions   []CodeforcesSubmission   `json:"submissions"`
}

type CodeforcesUser struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
}

type CodeforcesRatingChange struct {
	ContestID               int64  `json:"contestId"`
	ContestName             string `json:"contestName"`
	Rank                    int    `json:"rank"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
}

const VerdictOK = "OK"

type CodeforcesSubmission struct {
	ID                  int64              `json:"id"`
	CreationTimeSeconds int64              `json:"creationTimeSeconds"`
	Verdict             string             `json:"verdict"`
	Problem             *CodeforcesProblem `json:"problem"`
}

func (s CodeforcesSubmission) Accepted() bool {
	return s.Verdict == VerdictOK
}

func (s CodeforcesSubmission) SolveTime() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}

// SolvedKey derives the stable problem identity used for deduplication across
// scoring, activity and stats. ok is false when the submission lacks a contest
// id or index; such entries are skipped everywhere.
func (s CodeforcesSubmission) SolvedKey() (string, bool) {
	if s.Problem == nil || s.Problem.ContestID <= 0 || s.Problem.Index == "" {
		return "", false
	}
	return strconv.FormatInt(s.Problem.ContestID, 10) + "-" + s.Problem.Index, true
}

type CodeforcesProblem struct {
	ContestID int64  `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}
