package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/activity"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/scoring"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/stats"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
	idgen "github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/id"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
)

// ProfileFetcher retrieves the raw profile payload for one username on one
// platform. The returned bytes are the canonical raw JSON persisted next to
// the derived snapshot.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, username string) (platform.Payload, []byte, error)
}

// RefreshCacheInvalidator evicts derived leaderboard views after snapshots
// change.
type RefreshCacheInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string)
}

type RefreshConfig struct {
	Enabled    bool
	MaxWorkers int
}

type RefreshInput struct {
	// StudentID narrows the run to one student. Empty means everyone.
	StudentID string
	// Platform narrows the run to one platform. Empty means both.
	Platform string
	// MaxWorkers caps the fan-out for this run only.
	MaxWorkers int
	// DryRun computes scores and stats but skips DB writes.
	DryRun bool
}

type RefreshResult struct {
	RunID        string              `json:"run_id"`
	ProfileCount int                 `json:"profile_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	SkippedCount int                 `json:"skipped_count"`
	WorkerCount  int                 `json:"worker_count"`
	DryRun       bool                `json:"dry_run"`
	ElapsedMs    int64               `json:"elapsed_ms"`
	Items        []RefreshItemResult `json:"items"`
}

type RefreshItemResult struct {
	StudentID  string            `json:"student_id"`
	Platform   platform.Platform `json:"platform"`
	Username   string            `json:"username"`
	Status     string            `json:"status"`
	Score      float64           `json:"score"`
	DurationMs int64             `json:"duration_ms"`
	Message    string            `json:"message,omitempty"`
}

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"
	refreshStatusSkipped = "skipped"

	defaultRefreshWorkers = 4
	maxRefreshWorkers     = 16
)

// RefreshService re-fetches every linked coding profile, recomputes its score
// and stats, and persists the snapshot. Failures are per-profile: one broken
// handle never aborts the run.
type RefreshService struct {
	cfg      RefreshConfig
	profiles student.ProfileRepository
	fetchers map[platform.Platform]ProfileFetcher
	cache    RefreshCacheInvalidator
	logger   *logging.Logger
	ids      idgen.Generator
	now      func() time.Time
}

func NewRefreshService(
	cfg RefreshConfig,
	profiles student.ProfileRepository,
	fetchers map[platform.Platform]ProfileFetcher,
	cache RefreshCacheInvalidator,
	logger *logging.Logger,
) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		cfg:      cfg,
		profiles: profiles,
		fetchers: fetchers,
		cache:    cache,
		logger:   logger,
		ids:      idgen.NewRandomGenerator(),
		now:      time.Now,
	}
}

func (s *RefreshService) Refresh(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Refresh")
	defer span.End()

	if !s.cfg.Enabled {
		return RefreshResult{}, fmt.Errorf("%w: profile refresh is disabled (REFRESH_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.profiles == nil || len(s.fetchers) == 0 {
		return RefreshResult{}, fmt.Errorf("%w: profile refresh is not fully configured", ErrDependencyUnavailable)
	}

	platformFilter, err := normalizePlatformFilter(input.Platform)
	if err != nil {
		return RefreshResult{}, err
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("generate run id: %w", err)
	}

	started := s.now()

	worklist, err := s.profiles.ListLinkedProfiles(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("load linked profiles: %w", err)
	}
	worklist = filterWorklist(worklist, strings.TrimSpace(input.StudentID), platformFilter)

	workerCount := normalizeRefreshWorkerCount(input.MaxWorkers, s.cfg.MaxWorkers, len(worklist))
	result := RefreshResult{
		RunID:        runID,
		ProfileCount: len(worklist),
		WorkerCount:  workerCount,
		DryRun:       input.DryRun,
		Items:        make([]RefreshItemResult, 0, len(worklist)),
	}
	if len(worklist) == 0 {
		result.ElapsedMs = time.Since(started).Milliseconds()
		return result, nil
	}

	items := make(chan RefreshItemResult, len(worklist))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, profile := range worklist {
		profile := profile
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			itemStart := time.Now()
			row := RefreshItemResult{
				StudentID: profile.StudentID,
				Platform:  profile.Platform,
				Username:  profile.Username,
			}

			score, status, message := s.refreshOne(ctx, profile, input.DryRun)
			row.Score = score
			row.Status = status
			row.Message = message
			row.DurationMs = time.Since(itemStart).Milliseconds()

			switch status {
			case refreshStatusSuccess:
				successCount.Add(1)
			case refreshStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
				s.logger.WarnContext(ctx, "profile refresh failed",
					"student_id", profile.StudentID,
					"platform", profile.Platform,
					"username", profile.Username,
					"reason", message,
				)
			}

			items <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit profile to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(items)

	for row := range items {
		result.Items = append(result.Items, row)
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		if result.Items[i].StudentID != result.Items[j].StudentID {
			return result.Items[i].StudentID < result.Items[j].StudentID
		}
		return result.Items[i].Platform < result.Items[j].Platform
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.ElapsedMs = time.Since(started).Milliseconds()

	if result.SuccessCount > 0 && !input.DryRun && s.cache != nil {
		s.cache.DeletePrefix(ctx, "leaderboard:")
	}

	s.logger.InfoContext(ctx, "profile refresh finished",
		"run_id", runID,
		"profiles", result.ProfileCount,
		"updated", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
		"elapsed_ms", result.ElapsedMs,
		"dry_run", input.DryRun,
	)

	return result, nil
}

func (s *RefreshService) refreshOne(ctx context.Context, profile student.CodingProfile, dryRun bool) (float64, string, string) {
	fetcher, ok := s.fetchers[profile.Platform]
	if !ok {
		return 0, refreshStatusSkipped, fmt.Sprintf("no fetcher configured for platform %q", profile.Platform)
	}

	payload, raw, err := fetcher.FetchProfile(ctx, profile.Username)
	if err != nil {
		return 0, refreshStatusFailed, err.Error()
	}

	if !payload.HasData() {
		return 0, refreshStatusFailed, "no profile data for handle"
	}
	summary := stats.Extract(payload)

	score := scoring.Score(payload)
	snapshot := student.Snapshot{
		StudentID: profile.StudentID,
		Platform:  profile.Platform,
		Username:  profile.Username,
		Score:     score,
		Stats:     summary,
		RawJSON:   raw,
		FetchedAt: s.now().UTC(),
	}
	if err := snapshot.Validate(); err != nil {
		return 0, refreshStatusFailed, err.Error()
	}

	if dryRun {
		return score, refreshStatusSuccess, "dry run, snapshot not persisted"
	}

	if err := s.profiles.UpsertSnapshot(ctx, snapshot); err != nil {
		return 0, refreshStatusFailed, fmt.Sprintf("persist snapshot: %v", err)
	}

	return score, refreshStatusSuccess, ""
}

// RecentActivity recomputes activity windows for a stored snapshot. Windows
// are derived at read time so they stay anchored to "now" instead of the
// fetch time.
func RecentActivity(profile student.CodingProfile, now time.Time) (activity.WindowCounts, error) {
	if !profile.Fetched() || len(profile.RawJSON) == 0 {
		return activity.WindowCounts{}, nil
	}
	payload, err := platform.Decode(profile.Platform, profile.RawJSON)
	if err != nil {
		return activity.WindowCounts{}, fmt.Errorf("decode stored payload: %w", err)
	}
	return activity.Recent(payload, now), nil
}

func normalizePlatformFilter(raw string) (platform.Platform, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	p, ok := platform.Parse(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, raw)
	}
	return p, nil
}

func filterWorklist(profiles []student.CodingProfile, studentID string, p platform.Platform) []student.CodingProfile {
	filtered := make([]student.CodingProfile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.Username == "" {
			continue
		}
		if studentID != "" && profile.StudentID != studentID {
			continue
		}
		if p != "" && profile.Platform != p {
			continue
		}
		filtered = append(filtered, profile)
	}
	return filtered
}

func normalizeRefreshWorkerCount(requested, configured, taskCount int) int {
	workers := requested
	if workers <= 0 {
		workers = configured
	}
	if workers <= 0 {
		workers = defaultRefreshWorkers
	}
	if workers > maxRefreshWorkers {
		workers = maxRefreshWorkers
	}
	if taskCount > 0 && workers > taskCount {
		workers = taskCount
	}
	return workers
}
