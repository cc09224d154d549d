package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/infrastructure/repository/memory"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

const testJobToken = "internal-job-secret"

type stubFetcher struct {
	platform platform.Platform
	raw      string
	err      error
}

func (f *stubFetcher) FetchProfile(_ context.Context, _ string) (platform.Payload, []byte, error) {
	if f.err != nil {
		return platform.Payload{}, nil, f.err
	}
	payload, err := platform.Decode(f.platform, []byte(f.raw))
	if err != nil {
		return platform.Payload{}, nil, err
	}
	return payload, []byte(f.raw), nil
}

const stubLeetCodeRaw = `{
	"matchedUser": {
		"username": "stub-user",
		"profile": {"ranking": 200000},
		"submitStatsGlobal": {"acSubmissionNum": [
			{"difficulty": "Easy", "count": 10},
			{"difficulty": "Medium", "count": 4},
			{"difficulty": "Hard", "count": 1}
		]}
	},
	"recentAcSubmissionList": []
}`

const stubCodeforcesRaw = `{
	"user": {"handle": "stub-user", "rating": 1500, "maxRating": 1550, "rank": "specialist"},
	"ratingHistory": [],
	"submissions": []
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.NewStudentRepository()
	if err := memory.Seed(repo); err != nil {
		t.Fatalf("seed repository: %v", err)
	}

	boardService := usecase.NewLeaderboardService(repo, repo, nil, nil)
	refreshService := usecase.NewRefreshService(
		usecase.RefreshConfig{Enabled: true, MaxWorkers: 2},
		repo,
		map[platform.Platform]usecase.ProfileFetcher{
			platform.LeetCode:   &stubFetcher{platform: platform.LeetCode, raw: stubLeetCodeRaw},
			platform.Codeforces: &stubFetcher{platform: platform.Codeforces, raw: stubCodeforcesRaw},
		},
		nil,
		nil,
	)

	handler := NewHandler(boardService, refreshService, nil)
	return NewRouter(handler, nil, []string{"*"}, testJobToken)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["status"].(string); got != "ok" {
		t.Fatalf("expected status=ok, got %v", data["status"])
	}
}

func TestRouter_GetLeaderboard(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	entries, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one leaderboard entry")
	}
	first, _ := entries[0].(map[string]any)
	if got, _ := first["rank"].(float64); got != 1 {
		t.Fatalf("expected first entry rank=1, got %v", first["rank"])
	}
}

func TestRouter_GetLeaderboardSummary(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["student_count"].(float64); got == 0 {
		t.Fatalf("expected non-zero student_count, got %v", data["student_count"])
	}
}

func TestRouter_GetStudentProfiles(t *testing.T) {
	router := newTestRouter(t)

	t.Run("known student", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/students/stu-avani/profiles", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := decodeEnvelope(t, rec)
		data, _ := body["data"].(map[string]any)
		studentObj, _ := data["student"].(map[string]any)
		if got, _ := studentObj["id"].(string); got != "stu-avani" {
			t.Fatalf("expected student id stu-avani, got %v", studentObj["id"])
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/students/stu-missing/profiles", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestRouter_RunRefreshJob(t *testing.T) {
	router := newTestRouter(t)

	t.Run("without token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("dry run succeeds", func(t *testing.T) {
		reqBody := `{"dry_run": true, "platform": "leetcode"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh", strings.NewReader(reqBody))
		req.Header.Set("X-Internal-Job-Token", testJobToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeEnvelope(t, rec)
		data, _ := body["data"].(map[string]any)
		if got, _ := data["dry_run"].(bool); !got {
			t.Fatalf("expected dry_run=true in result")
		}
		if got, _ := data["profile_count"].(float64); got == 0 {
			t.Fatalf("expected non-zero profile_count, got %v", data["profile_count"])
		}
	})

	t.Run("unknown platform rejected", func(t *testing.T) {
		reqBody := `{"platform": "topcoder"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh", strings.NewReader(reqBody))
		req.Header.Set("X-Internal-Job-Token", testJobToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("unknown body field rejected", func(t *testing.T) {
		reqBody := `{"platfrm": "leetcode"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh", strings.NewReader(reqBody))
		req.Header.Set("X-Internal-Job-Token", testJobToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}
