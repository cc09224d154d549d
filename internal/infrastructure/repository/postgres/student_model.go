package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/stats"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
)

type studentTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Batch     string    `db:"batch"`
	CreatedAt time.Time `db:"created_at"`
}

func (m studentTableModel) toDomain() student.Student {
	return student.Student{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Batch:     m.Batch,
		CreatedAt: m.CreatedAt,
	}
}

type codingProfileTableModel struct {
	StudentID string       `db:"student_id"`
	Platform  string       `db:"platform"`
	Username  string       `db:"username"`
	Score     float64      `db:"score"`
	Stats     []byte       `db:"stats"`
	RawJSON   []byte       `db:"raw_json"`
	FetchedAt sql.NullTime `db:"fetched_at"`
}

func (m codingProfileTableModel) toDomain() (student.CodingProfile, error) {
	profile := student.CodingProfile{
		StudentID: m.StudentID,
		Platform:  platform.Platform(m.Platform),
		Username:  m.Username,
		Score:     m.Score,
		RawJSON:   m.RawJSON,
	}
	if len(m.Stats) > 0 {
		var summary stats.Summary
		if err := sonic.Unmarshal(m.Stats, &summary); err != nil {
			return student.CodingProfile{}, fmt.Errorf("decode stats for student=%s platform=%s: %w", m.StudentID, m.Platform, err)
		}
		profile.Stats = &summary
	}
	if m.FetchedAt.Valid {
		fetchedAt := m.FetchedAt.Time.UTC()
		profile.FetchedAt = &fetchedAt
	}
	return profile, nil
}

func encodeStats(summary *stats.Summary) ([]byte, error) {
	// A summary without a platform branch carries no data worth a JSONB row.
	if summary.Record() == nil {
		return nil, nil
	}
	encoded, err := sonic.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	return encoded, nil
}
