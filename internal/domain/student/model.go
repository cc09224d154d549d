package student

import (
	"errors"
	"fmt"
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/stats"
)

var (
	ErrMissingStudentID  = errors.New("student id is required")
	ErrMissingUsername   = errors.New("platform username is required")
	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrNegativeScore     = errors.New("score must not be negative")
	ErrMissingFetchedAt  = errors.New("fetched_at is required")
	ErrSnapshotRawAbsent = errors.New("snapshot raw payload is required")
)

// Student is a tracked member of the leaderboard.
type Student struct {
	ID        string
	Name      string
	Email     string
	Batch     string
	CreatedAt time.Time
}

// CodingProfile links a student to one account on one platform, together with
// the latest scored state. Score, Stats, RawJSON and FetchedAt stay zero until
// the first successful refresh.
type CodingProfile struct {
	StudentID string
	Platform  platform.Platform
	Username  string
	Score     float64
	Stats     *stats.Summary
	RawJSON   []byte
	FetchedAt *time.Time
}

// Fetched reports whether the profile has ever been refreshed successfully.
func (p CodingProfile) Fetched() bool {
	return p.FetchedAt != nil && p.Stats != nil
}

func (p CodingProfile) Validate() error {
	if p.StudentID == "" {
		return fmt.Errorf("%w: coding profile", ErrMissingStudentID)
	}
	if _, ok := platform.All[p.Platform]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, p.Platform)
	}
	if p.Username == "" {
		return fmt.Errorf("%w: student %s on %s", ErrMissingUsername, p.StudentID, p.Platform)
	}
	if p.Score < 0 {
		return fmt.Errorf("%w: got %v", ErrNegativeScore, p.Score)
	}
	return nil
}

// Snapshot is the result of one successful refresh of one profile, ready to
// be persisted.
type Snapshot struct {
	StudentID string
	Platform  platform.Platform
	Username  string
	Score     float64
	Stats     *stats.Summary
	RawJSON   []byte
	FetchedAt time.Time
}

func (s Snapshot) Validate() error {
	profile := CodingProfile{
		StudentID: s.StudentID,
		Platform:  s.Platform,
		Username:  s.Username,
		Score:     s.Score,
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if s.FetchedAt.IsZero() {
		return fmt.Errorf("%w: student %s on %s", ErrMissingFetchedAt, s.StudentID, s.Platform)
	}
	if len(s.RawJSON) == 0 {
		return fmt.Errorf("%w: student %s on %s", ErrSnapshotRawAbsent, s.StudentID, s.Platform)
	}
	return nil
}
