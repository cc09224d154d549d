package codeforces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/resilience"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL:        server.URL,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func cfHandler(t *testing.T, ratingFails, statusFails bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "user.info"):
			if got := r.URL.Query().Get("handles"); got != "ravi" {
				t.Errorf("handles = %q", got)
			}
			_, _ = io.WriteString(w, `{"status":"OK","result":[{"handle":"ravi","rating":1820,"maxRating":1900,"rank":"expert"}]}`)
		case strings.HasSuffix(r.URL.Path, "user.rating"):
			if ratingFails {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, `{"status":"OK","result":[{"contestId":1700,"newRating":1500},{"contestId":1701,"newRating":1820}]}`)
		case strings.HasSuffix(r.URL.Path, "user.status"):
			if statusFails {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, `{"status":"OK","result":[{"id":1,"creationTimeSeconds":1767225600,"verdict":"OK","problem":{"contestId":1700,"index":"A","rating":900}}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestClient_FetchProfile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, cfHandler(t, false, false))

	payload, raw, err := client.FetchProfile(context.Background(), "ravi")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if !payload.HasData() {
		t.Fatal("expected payload with data")
	}
	if payload.Codeforces.User.Rating != 1820 {
		t.Fatalf("rating = %d", payload.Codeforces.User.Rating)
	}
	if len(payload.Codeforces.RatingHistory) != 2 {
		t.Fatalf("rating history = %d", len(payload.Codeforces.RatingHistory))
	}
	if len(payload.Codeforces.Submissions) != 1 {
		t.Fatalf("submissions = %d", len(payload.Codeforces.Submissions))
	}
	if !strings.Contains(string(raw), `"handle":"ravi"`) {
		t.Fatalf("raw payload missing user: %s", raw)
	}
}

func TestClient_FetchProfile_SecondaryEndpointsDegrade(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, cfHandler(t, true, true))

	payload, _, err := client.FetchProfile(context.Background(), "ravi")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if !payload.HasData() {
		t.Fatal("user.info alone should still produce a payload")
	}
	if len(payload.Codeforces.RatingHistory) != 0 || len(payload.Codeforces.Submissions) != 0 {
		t.Fatalf("expected empty secondary data, got %+v", payload.Codeforces)
	}
}

func TestClient_FetchProfile_FailedStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"FAILED","comment":"handles: User with handle ghost not found"}`)
	})

	_, _, err := client.FetchProfile(context.Background(), "ghost")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected api failure, got %v", err)
	}
}

func TestClient_FetchProfile_EmptyHandle(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	_, _, err := client.FetchProfile(context.Background(), "")
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
