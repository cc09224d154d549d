package student

import "context"

// Repository persists students.
type Repository interface {
	ListStudents(ctx context.Context) ([]Student, error)
	GetStudent(ctx context.Context, id string) (Student, bool, error)
	UpsertStudent(ctx context.Context, s Student) error
}

// ProfileRepository persists coding profiles and refresh snapshots.
type ProfileRepository interface {
	// ListLinkedProfiles returns every profile with a non-empty username,
	// the worklist for a refresh run.
	ListLinkedProfiles(ctx context.Context) ([]CodingProfile, error)
	ListProfilesByStudent(ctx context.Context, studentID string) ([]CodingProfile, error)
	LinkProfile(ctx context.Context, profile CodingProfile) error
	UpsertSnapshot(ctx context.Context, snapshot Snapshot) error
}
