package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
)

// StudentRepository persists students and coding profiles in Postgres. It
// implements both student.Repository and student.ProfileRepository.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) ListStudents(ctx context.Context) ([]student.Student, error) {
	const query = `SELECT id, name, email, batch, created_at FROM students ORDER BY id`

	var rows []studentTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	out := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StudentRepository) GetStudent(ctx context.Context, id string) (student.Student, bool, error) {
	const query = `SELECT id, name, email, batch, created_at FROM students WHERE id = $1`

	var row studentTableModel
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if isNotFound(err) {
			return student.Student{}, false, nil
		}
		return student.Student{}, false, fmt.Errorf("get student: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *StudentRepository) UpsertStudent(ctx context.Context, item student.Student) error {
	const query = `
INSERT INTO students (id, name, email, batch, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    email = EXCLUDED.email,
    batch = EXCLUDED.batch`

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.Email, item.Batch, createdAt); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

func (r *StudentRepository) ListLinkedProfiles(ctx context.Context) ([]student.CodingProfile, error) {
	const query = `
SELECT student_id, platform, username, score, stats, raw_json, fetched_at
FROM coding_profiles
WHERE username <> ''
ORDER BY student_id, platform`

	var rows []codingProfileTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list linked profiles: %w", err)
	}
	return profilesToDomain(rows)
}

func (r *StudentRepository) ListProfilesByStudent(ctx context.Context, studentID string) ([]student.CodingProfile, error) {
	const query = `
SELECT student_id, platform, username, score, stats, raw_json, fetched_at
FROM coding_profiles
WHERE student_id = $1
ORDER BY platform`

	var rows []codingProfileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list profiles by student: %w", err)
	}
	return profilesToDomain(rows)
}

func (r *StudentRepository) LinkProfile(ctx context.Context, profile student.CodingProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	const query = `
INSERT INTO coding_profiles (student_id, platform, username)
VALUES ($1, $2, $3)
ON CONFLICT (student_id, platform) DO UPDATE SET
    username = EXCLUDED.username`

	if _, err := r.db.ExecContext(ctx, query, profile.StudentID, string(profile.Platform), profile.Username); err != nil {
		return fmt.Errorf("link profile: %w", err)
	}
	return nil
}

func (r *StudentRepository) UpsertSnapshot(ctx context.Context, snapshot student.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	encodedStats, err := encodeStats(snapshot.Stats)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO coding_profiles (student_id, platform, username, score, stats, raw_json, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (student_id, platform) DO UPDATE SET
    username = EXCLUDED.username,
    score = EXCLUDED.score,
    stats = EXCLUDED.stats,
    raw_json = EXCLUDED.raw_json,
    fetched_at = EXCLUDED.fetched_at`

	_, err = r.db.ExecContext(ctx, query,
		snapshot.StudentID,
		string(snapshot.Platform),
		snapshot.Username,
		snapshot.Score,
		encodedStats,
		snapshot.RawJSON,
		snapshot.FetchedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("upsert snapshot: student %q no longer exists: %w", snapshot.StudentID, err)
		}
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func profilesToDomain(rows []codingProfileTableModel) ([]student.CodingProfile, error) {
	out := make([]student.CodingProfile, 0, len(rows))
	for _, row := range rows {
		profile, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}
