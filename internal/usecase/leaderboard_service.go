package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/activity"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/stats"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/cache"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
)

const (
	cacheKeyStandings = "leaderboard:standings"
	cacheKeySummary   = "leaderboard:summary"
)

// LeaderboardEntry is one ranked row. Ranks are dense: students with equal
// total scores share a rank and the next distinct score takes the following
// rank number.
type LeaderboardEntry struct {
	Rank           int                           `json:"rank"`
	StudentID      string                        `json:"student_id"`
	Name           string                        `json:"name"`
	Batch          string                        `json:"batch,omitempty"`
	TotalScore     float64                       `json:"total_score"`
	PlatformScores map[platform.Platform]float64 `json:"platform_scores"`
	Activity       activity.WindowCounts         `json:"activity"`
	LastFetchedAt  *time.Time                    `json:"last_fetched_at,omitempty"`
}

type LeaderboardSummary struct {
	StudentCount   int                   `json:"student_count"`
	ProfileCount   int                   `json:"profile_count"`
	FetchedCount   int                   `json:"fetched_count"`
	TotalActivity  activity.WindowCounts `json:"total_activity"`
	ActiveStudents activity.WindowCounts `json:"active_students"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// ProfileView is the per-platform detail returned for a single student.
type ProfileView struct {
	Platform  platform.Platform     `json:"platform"`
	Username  string                `json:"username"`
	Score     float64               `json:"score"`
	Stats     *stats.Summary        `json:"stats,omitempty"`
	Activity  activity.WindowCounts `json:"activity"`
	FetchedAt *time.Time            `json:"fetched_at,omitempty"`
}

type StudentDetail struct {
	Student  student.Student `json:"student"`
	Profiles []ProfileView   `json:"profiles"`
}

// LeaderboardService serves ranked standings and aggregate summaries from the
// persisted snapshots. Activity windows are recomputed from the stored raw
// payloads on every cache fill so they track the current day.
type LeaderboardService struct {
	students student.Repository
	profiles student.ProfileRepository
	cache    *cache.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewLeaderboardService(
	students student.Repository,
	profiles student.ProfileRepository,
	cacheStore *cache.Store,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		students: students,
		profiles: profiles,
		cache:    cacheStore,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *LeaderboardService) Standings(ctx context.Context) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Standings")
	defer span.End()

	if s.students == nil || s.profiles == nil {
		return nil, fmt.Errorf("%w: leaderboard repositories are not configured", ErrDependencyUnavailable)
	}

	load := func(ctx context.Context) (any, error) {
		return s.buildStandings(ctx)
	}
	if s.cache == nil {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]LeaderboardEntry), nil
	}

	value, err := s.cache.GetOrLoad(ctx, cacheKeyStandings, load)
	if err != nil {
		return nil, err
	}
	entries, ok := value.([]LeaderboardEntry)
	if !ok {
		return nil, fmt.Errorf("unexpected cached standings type %T", value)
	}
	return entries, nil
}

func (s *LeaderboardService) Summary(ctx context.Context) (LeaderboardSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Summary")
	defer span.End()

	if s.students == nil || s.profiles == nil {
		return LeaderboardSummary{}, fmt.Errorf("%w: leaderboard repositories are not configured", ErrDependencyUnavailable)
	}

	load := func(ctx context.Context) (any, error) {
		return s.buildSummary(ctx)
	}
	if s.cache == nil {
		value, err := load(ctx)
		if err != nil {
			return LeaderboardSummary{}, err
		}
		return value.(LeaderboardSummary), nil
	}

	value, err := s.cache.GetOrLoad(ctx, cacheKeySummary, load)
	if err != nil {
		return LeaderboardSummary{}, err
	}
	summary, ok := value.(LeaderboardSummary)
	if !ok {
		return LeaderboardSummary{}, fmt.Errorf("unexpected cached summary type %T", value)
	}
	return summary, nil
}

func (s *LeaderboardService) Students(ctx context.Context) ([]student.Student, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Students")
	defer span.End()

	if s.students == nil {
		return nil, fmt.Errorf("%w: student repository is not configured", ErrDependencyUnavailable)
	}
	return s.students.ListStudents(ctx)
}

func (s *LeaderboardService) StudentDetail(ctx context.Context, studentID string) (StudentDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.StudentDetail")
	defer span.End()

	if studentID == "" {
		return StudentDetail{}, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if s.students == nil || s.profiles == nil {
		return StudentDetail{}, fmt.Errorf("%w: leaderboard repositories are not configured", ErrDependencyUnavailable)
	}

	item, found, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return StudentDetail{}, fmt.Errorf("load student: %w", err)
	}
	if !found {
		return StudentDetail{}, fmt.Errorf("%w: student %q", ErrNotFound, studentID)
	}

	profiles, err := s.profiles.ListProfilesByStudent(ctx, studentID)
	if err != nil {
		return StudentDetail{}, fmt.Errorf("load student profiles: %w", err)
	}

	now := s.now()
	views := make([]ProfileView, 0, len(profiles))
	for _, profile := range profiles {
		windows, err := RecentActivity(profile, now)
		if err != nil {
			s.logger.WarnContext(ctx, "stored payload unreadable",
				"student_id", profile.StudentID,
				"platform", profile.Platform,
				"error", err,
			)
		}
		views = append(views, ProfileView{
			Platform:  profile.Platform,
			Username:  profile.Username,
			Score:     profile.Score,
			Stats:     profile.Stats,
			Activity:  windows,
			FetchedAt: profile.FetchedAt,
		})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Platform < views[j].Platform })

	return StudentDetail{Student: item, Profiles: views}, nil
}

func (s *LeaderboardService) buildStandings(ctx context.Context) ([]LeaderboardEntry, error) {
	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	profiles, err := s.profiles.ListLinkedProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	now := s.now()
	byStudent := make(map[string][]student.CodingProfile, len(students))
	for _, profile := range profiles {
		byStudent[profile.StudentID] = append(byStudent[profile.StudentID], profile)
	}

	entries := make([]LeaderboardEntry, 0, len(students))
	for _, item := range students {
		entry := LeaderboardEntry{
			StudentID:      item.ID,
			Name:           item.Name,
			Batch:          item.Batch,
			PlatformScores: make(map[platform.Platform]float64),
		}

		var windows []activity.WindowCounts
		for _, profile := range byStudent[item.ID] {
			entry.PlatformScores[profile.Platform] = profile.Score
			entry.TotalScore += profile.Score
			if profile.FetchedAt != nil {
				if entry.LastFetchedAt == nil || profile.FetchedAt.After(*entry.LastFetchedAt) {
					entry.LastFetchedAt = profile.FetchedAt
				}
			}

			counts, err := RecentActivity(profile, now)
			if err != nil {
				s.logger.WarnContext(ctx, "stored payload unreadable",
					"student_id", profile.StudentID,
					"platform", profile.Platform,
					"error", err,
				)
				continue
			}
			windows = append(windows, counts)
		}
		entry.Activity = activity.Aggregate(windows)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].StudentID < entries[j].StudentID
	})

	rank := 0
	lastScore := 0.0
	for i := range entries {
		if i == 0 || entries[i].TotalScore != lastScore {
			rank++
			lastScore = entries[i].TotalScore
		}
		entries[i].Rank = rank
	}

	return entries, nil
}

func (s *LeaderboardService) buildSummary(ctx context.Context) (LeaderboardSummary, error) {
	standings, err := s.buildStandings(ctx)
	if err != nil {
		return LeaderboardSummary{}, err
	}
	profiles, err := s.profiles.ListLinkedProfiles(ctx)
	if err != nil {
		return LeaderboardSummary{}, fmt.Errorf("load profiles: %w", err)
	}

	summary := LeaderboardSummary{
		StudentCount: len(standings),
		ProfileCount: len(profiles),
		GeneratedAt:  s.now().UTC(),
	}
	for _, profile := range profiles {
		if profile.Fetched() {
			summary.FetchedCount++
		}
	}

	perStudent := make([]activity.WindowCounts, 0, len(standings))
	for _, entry := range standings {
		perStudent = append(perStudent, entry.Activity)
	}
	summary.TotalActivity = activity.Aggregate(perStudent)
	summary.ActiveStudents = activity.ActiveCounts(perStudent)

	return summary, nil
}
