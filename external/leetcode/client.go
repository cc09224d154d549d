package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/resilience"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

const defaultBaseURL = "https://leetcode.com/graphql"

// recentAcSubmissionList is capped at 100 entries server-side, which bounds
// how far back the derived activity windows can see.
const profileQuery = `
query studentProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile { ranking }
    submitStatsGlobal { acSubmissionNum { difficulty count } }
  }
  userContestRanking(username: $username) {
    rating
    attendedContestsCount
  }
  recentAcSubmissionList(username: $username, limit: 100) {
    title
    titleSlug
    timestamp
  }
  recentSubmissionList(username: $username, limit: 20) {
    title
    titleSlug
    timestamp
    statusDisplay
  }
}`

var errLeetCodeTransient = crerr.New("leetcode transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches public profiles from the LeetCode GraphQL API. The endpoint
// is unauthenticated but rejects requests without browser-like headers.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// FetchProfile retrieves the full profile bundle for one username. The raw
// bytes are the GraphQL data object exactly as the API returned it.
func (c *Client) FetchProfile(ctx context.Context, username string) (platform.Payload, []byte, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return platform.Payload{}, nil, fmt.Errorf("%w: username is required", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "leetcode circuit breaker rejected request", "state", c.breaker.State())
			return platform.Payload{}, nil, fmt.Errorf("%w: leetcode is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(graphQLRequest{
		Query:     profileQuery,
		Variables: map[string]string{"username": username},
	})
	if err != nil {
		return platform.Payload{}, nil, fmt.Errorf("encode graphql request: %w", err)
	}

	out, err, _ := c.flight.Do("profile:"+username, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, username, body)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errLeetCodeTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return platform.Payload{}, nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return platform.Payload{}, nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope graphQLEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return platform.Payload{}, nil, fmt.Errorf("decode graphql envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return platform.Payload{}, nil, fmt.Errorf("graphql error for %q: %s", username, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return platform.Payload{}, nil, fmt.Errorf("graphql response for %q has no data", username)
	}

	var data platform.LeetCodePayload
	if err := sonic.Unmarshal(envelope.Data, &data); err != nil {
		return platform.Payload{}, nil, fmt.Errorf("decode profile payload: %w", err)
	}

	return platform.NewLeetCodePayload(&data), []byte(envelope.Data), nil
}

func (c *Client) executeRequest(ctx context.Context, username string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Referer", "https://leetcode.com/"+username+"/")
		req.Header.Set("Origin", "https://leetcode.com")
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errLeetCodeTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errLeetCodeTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: leetcode status=%d body=%s", errLeetCodeTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("leetcode status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("leetcode request failed")
	}
	c.logger.WarnContext(ctx, "leetcode request failed", "username", username, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
