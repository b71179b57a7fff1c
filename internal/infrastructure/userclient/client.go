// Package userclient talks to the remote user service. Lookups are
// best-effort: a remote "not found" and any terminal failure both surface as
// (nil, nil) with a logged warning, so a broken directory degrades responses
// instead of failing them.
package userclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Config captures the settings for the user-service client.
type Config struct {
	// BaseURL is the user endpoint, e.g. http://orion-users:8092/service/user.
	BaseURL string
	// Timeout bounds each HTTP attempt. Defaults to defaultTimeout.
	Timeout time.Duration
	// MaxRetries bounds attempts on 5xx and transport errors.
	// Defaults to defaultRetries.
	MaxRetries int
}

type Client struct {
	baseURL    string
	maxRetries int
	http       *http.Client
	log        zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultRetries
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: retries,
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// GetUserByID fetches GET <base>/<id>. 404 is a miss, not an error. 5xx and
// transport failures are retried with linear backoff; when retries are
// exhausted the lookup degrades to a miss with a warning.
func (c *Client) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidProgramData)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(id)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				c.log.Warn().Err(ctx.Err()).Str("user_id", id).Msg("user lookup cancelled")
				return nil, nil
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
		}

		user, retry, err := c.fetch(ctx, endpoint)
		if err == nil {
			return user, nil
		}
		lastErr = err
		if !retry {
			break
		}
		c.log.Debug().Err(err).Str("user_id", id).Int("attempt", attempt+1).Msg("user lookup attempt failed")
	}

	c.log.Warn().Err(lastErr).Str("user_id", id).Msg("user lookup failed, degrading to not found")
	return nil, nil
}

// fetch performs one attempt. The bool result reports whether the failure
// is worth retrying.
func (c *Client) fetch(ctx context.Context, endpoint string) (*domain.User, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	// Mark the call as trusted service-to-service traffic for the peer.
	req.Header.Set("X-Service-Request", "true")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("user service request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var user domain.User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, false, fmt.Errorf("decode user response: %w", err)
		}
		if strings.TrimSpace(user.IDUser) == "" {
			return nil, false, fmt.Errorf("user service returned record without id")
		}
		return &user, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("user service responded %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("user service responded %d", resp.StatusCode)
	}
}
