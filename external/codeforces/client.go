package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/resilience"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

const (
	defaultBaseURL = "https://codeforces.com/api"
	// user.status pages beyond this are ignored; very old submissions do not
	// move any of the derived numbers except the distinct-solved count.
	submissionFetchLimit = 2000
)

var errCodeforcesTransient = crerr.New("codeforces transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the public Codeforces REST API. One profile fetch combines
// user.info, user.rating and user.status into a single payload.
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

type apiEnvelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// FetchProfile retrieves the combined payload for one handle. user.info must
// succeed; rating history and submissions are fetched concurrently and
// degrade to empty slices on failure so a flaky secondary endpoint does not
// fail the whole refresh.
func (c *Client) FetchProfile(ctx context.Context, handle string) (platform.Payload, []byte, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return platform.Payload{}, nil, fmt.Errorf("%w: handle is required", usecase.ErrInvalidInput)
	}

	var users []platform.CodeforcesUser
	if err := c.getJSON(ctx, "user.info", url.Values{"handles": {handle}}, &users); err != nil {
		return platform.Payload{}, nil, fmt.Errorf("fetch user.info handle=%s: %w", handle, err)
	}

	data := &platform.CodeforcesPayload{}
	if len(users) > 0 {
		data.User = &users[0]
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		var history []platform.CodeforcesRatingChange
		if err := c.getJSON(ctx, "user.rating", url.Values{"handle": {handle}}, &history); err != nil {
			c.logger.WarnContext(ctx, "fetch user.rating failed, continuing without history",
				"handle", handle, "error", err)
			return
		}
		data.RatingHistory = history
	})
	wg.Go(func() {
		var submissions []platform.CodeforcesSubmission
		query := url.Values{
			"handle": {handle},
			"from":   {"1"},
			"count":  {fmt.Sprint(submissionFetchLimit)},
		}
		if err := c.getJSON(ctx, "user.status", query, &submissions); err != nil {
			c.logger.WarnContext(ctx, "fetch user.status failed, continuing without submissions",
				"handle", handle, "error", err)
			return
		}
		data.Submissions = submissions
	})
	wg.Wait()

	raw, err := sonic.Marshal(data)
	if err != nil {
		return platform.Payload{}, nil, fmt.Errorf("encode combined payload: %w", err)
	}

	return platform.NewCodeforcesPayload(data), raw, nil
}

func (c *Client) getJSON(ctx context.Context, method string, query url.Values, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "codeforces circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: codeforces is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + "/" + method
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errCodeforcesTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope apiEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode api envelope: %w", err)
	}
	if envelope.Status != "OK" {
		return fmt.Errorf("api status=%q comment=%q", envelope.Status, envelope.Comment)
	}
	if err := sonic.Unmarshal(envelope.Result, target); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errCodeforcesTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errCodeforcesTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: codeforces status=%d body=%s", errCodeforcesTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("codeforces status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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
		lastErr = fmt.Errorf("codeforces request failed")
	}
	c.logger.WarnContext(ctx, "codeforces request failed", "url", fullURL, "error", lastErr)
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
