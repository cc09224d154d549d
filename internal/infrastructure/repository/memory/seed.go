package memory

import (
	"context"
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
)

func SeedStudents() []student.Student {
	createdAt := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return []student.Student{
		{ID: "stu-avani", Name: "Avani Kulkarni", Email: "avani@example.edu", Batch: "2024", CreatedAt: createdAt},
		{ID: "stu-ravi", Name: "Ravi Teja", Email: "ravi@example.edu", Batch: "2024", CreatedAt: createdAt},
		{ID: "stu-meera", Name: "Meera Iyer", Email: "meera@example.edu", Batch: "2025", CreatedAt: createdAt},
		{ID: "stu-karan", Name: "Karan Malhotra", Email: "karan@example.edu", Batch: "2025", CreatedAt: createdAt},
	}
}

func SeedProfiles() []student.CodingProfile {
	return []student.CodingProfile{
		{StudentID: "stu-avani", Platform: platform.LeetCode, Username: "avani_k"},
		{StudentID: "stu-avani", Platform: platform.Codeforces, Username: "avani_cf"},
		{StudentID: "stu-ravi", Platform: platform.LeetCode, Username: "raviteja_lc"},
		{StudentID: "stu-meera", Platform: platform.Codeforces, Username: "meera_i"},
		{StudentID: "stu-karan", Platform: platform.LeetCode, Username: "karanm"},
	}
}

// Seed loads the development fixtures into a fresh repository.
func Seed(repo *StudentRepository) error {
	ctx := context.Background()
	for _, item := range SeedStudents() {
		if err := repo.UpsertStudent(ctx, item); err != nil {
			return err
		}
	}
	for _, profile := range SeedProfiles() {
		if err := repo.LinkProfile(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}
