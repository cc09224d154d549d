package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
)

// StudentRepository keeps students and coding profiles in process memory.
// It backs local development and tests when no database is configured.
type StudentRepository struct {
	mu       sync.RWMutex
	students map[string]student.Student
	profiles map[string]student.CodingProfile
}

func NewStudentRepository() *StudentRepository {
	return &StudentRepository{
		students: make(map[string]student.Student),
		profiles: make(map[string]student.CodingProfile),
	}
}

func (r *StudentRepository) ListStudents(_ context.Context) ([]student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]student.Student, 0, len(r.students))
	for _, item := range r.students {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StudentRepository) GetStudent(_ context.Context, id string) (student.Student, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.students[id]
	if !ok {
		return student.Student{}, false, nil
	}
	return item, true, nil
}

func (r *StudentRepository) UpsertStudent(_ context.Context, item student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.students[item.ID] = item
	return nil
}

func (r *StudentRepository) ListLinkedProfiles(_ context.Context) ([]student.CodingProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]student.CodingProfile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		if profile.Username == "" {
			continue
		}
		out = append(out, cloneProfile(profile))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

func (r *StudentRepository) ListProfilesByStudent(_ context.Context, studentID string) ([]student.CodingProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]student.CodingProfile, 0, 2)
	for _, profile := range r.profiles {
		if profile.StudentID == studentID {
			out = append(out, cloneProfile(profile))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (r *StudentRepository) LinkProfile(_ context.Context, profile student.CodingProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profileKey(profile.StudentID, profile.Platform)] = cloneProfile(profile)
	return nil
}

func (r *StudentRepository) UpsertSnapshot(_ context.Context, snapshot student.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := profileKey(snapshot.StudentID, snapshot.Platform)
	profile, ok := r.profiles[key]
	if !ok {
		profile = student.CodingProfile{
			StudentID: snapshot.StudentID,
			Platform:  snapshot.Platform,
		}
	}
	profile.Username = snapshot.Username
	profile.Score = snapshot.Score
	profile.Stats = snapshot.Stats
	profile.RawJSON = append([]byte(nil), snapshot.RawJSON...)
	fetchedAt := snapshot.FetchedAt
	profile.FetchedAt = &fetchedAt

	r.profiles[key] = profile
	return nil
}

func profileKey(studentID string, p platform.Platform) string {
	return studentID + "::" + string(p)
}

func cloneProfile(p student.CodingProfile) student.CodingProfile {
	copied := p
	copied.RawJSON = append([]byte(nil), p.RawJSON...)
	if p.FetchedAt != nil {
		fetchedAt := *p.FetchedAt
		copied.FetchedAt = &fetchedAt
	}
	return copied
}
