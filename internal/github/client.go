// Package github implements the conditional-polling client for the GitHub
// notifications API. All operations authenticate with the stored credential,
// run under a 30 second request ceiling on a pooled connection, and classify
// failures into the RemoteError taxonomy. ListInbox and MarkRead retry
// transient failures (rate limit, network) with a constant backoff; terminal
// failures (bad credentials, not found) surface immediately.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gh-notifier/gh-notifier/internal/auth"
)

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	requestTimeout = 30 * time.Second

	acceptHeader = "application/vnd.github.v3+json"
)

// Client talks to the remote notifications API. Create instances with New;
// connections are pooled across calls within one instance.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cred       auth.Credential
	limiter    *rate.Limiter
	logger     *zap.Logger

	retryCount    uint64
	retryInterval time.Duration
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API root, mainly for tests. Empty uses
	// DefaultBaseURL.
	BaseURL string

	// Version is embedded in the User-Agent header.
	Version string

	// RetryCount and RetryInterval control the transient-failure retry loop
	// for ListInbox and MarkRead.
	RetryCount    uint32
	RetryInterval time.Duration
}

// New creates a Client authenticated with cred.
func New(cred auth.Credential, opts Options, logger *zap.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  fmt.Sprintf("gh-notifier/%s", version),
		httpClient: &http.Client{Timeout: requestTimeout},
		cred:       cred,
		// Client-side pacing: the notifications endpoint budget is ample, but
		// pacing keeps poll ticks and mark-read bursts from colliding.
		limiter:       rate.NewLimiter(rate.Every(time.Second), 10),
		logger:        logger.Named("remote"),
		retryCount:    uint64(opts.RetryCount),
		retryInterval: opts.RetryInterval,
	}
}

// SetCredential swaps the credential after a re-authentication.
func (c *Client) SetCredential(cred auth.Credential) {
	c.cred = cred
}

// InboxResult is the outcome of one conditional inbox listing. When
// NotModified is true, Items is nil and the caller must skip all downstream
// work. ETag carries the response cache validator for the next request.
type InboxResult struct {
	Items       []Notification
	NotModified bool
	ETag        string
}

// ListInbox performs a conditional GET of /notifications. ifModifiedSince
// and etag are sent as If-Modified-Since and If-None-Match when non-empty.
// Transient failures are retried up to the configured count with the
// configured sleep between attempts.
func (c *Client) ListInbox(ctx context.Context, ifModifiedSince, etag string) (InboxResult, error) {
	var result InboxResult
	err := c.withRetry(ctx, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, "/notifications", nil)
		if err != nil {
			return err
		}
		if ifModifiedSince != "" {
			req.Header.Set("If-Modified-Since", ifModifiedSince)
		}
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &RemoteError{Kind: KindNetwork, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified {
			result = InboxResult{NotModified: true}
			return nil
		}
		if err := classifyStatus(resp); err != nil {
			return err
		}

		var got []Notification
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			return &RemoteError{Kind: KindParse, Err: err}
		}
		result = InboxResult{Items: got, ETag: resp.Header.Get("ETag")}
		return nil
	})
	if err != nil {
		return InboxResult{}, err
	}
	return result, nil
}

// MarkRead marks a notification thread as read via PATCH
// /notifications/threads/{id}. Idempotent from the caller's perspective:
// marking an already-read thread succeeds.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodPatch, "/notifications/threads/"+id, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &RemoteError{Kind: KindNetwork, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return &RemoteError{Kind: KindNotFound, Resource: "notification thread", ID: id}
		}
		return classifyStatus(resp)
	})
}

// ValidateCredential performs a cheap authenticated GET of /user. It returns
// false (with nil error) on an auth-classified failure and true on 2xx;
// network faults return an error so callers can distinguish a transient
// outage from an invalid credential.
func (c *Client) ValidateCredential(ctx context.Context) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &RemoteError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	if err := classifyStatus(resp); IsAuth(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// RateLimit fetches the advisory core rate limit snapshot.
func (c *Client) RateLimit(ctx context.Context) (RateLimit, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rate_limit", nil)
	if err != nil {
		return RateLimit{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RateLimit{}, &RemoteError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return RateLimit{}, err
	}

	var body struct {
		Resources struct {
			Core RateLimit `json:"core"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RateLimit{}, &RemoteError{Kind: KindParse, Err: err}
	}
	return body.Resources.Core, nil
}

// newRequest builds an authenticated request with the standard headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RemoteError{Kind: KindRequest, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &RemoteError{Kind: KindRequest, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", c.cred.Scheme+" "+c.cred.Token.Reveal())
	return req, nil
}

// withRetry runs fn, retrying transient RemoteErrors with a constant backoff
// of the configured interval, up to the configured retry count.
func (c *Client) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retryCount, retry.NewConstant(c.retryInterval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			c.logger.Warn("transient remote failure, will retry",
				zap.String("kind", string(kindOf(err))),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func kindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindAPI
}

// classifyStatus maps a non-2xx response into the RemoteError taxonomy.
// The body is read (bounded) because GitHub distinguishes rate limiting from
// bad credentials only through the message text on a 403.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := string(body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &RemoteError{Kind: KindAuth, Status: resp.StatusCode, Body: text}
	case resp.StatusCode == http.StatusForbidden &&
		strings.Contains(text, "API rate limit exceeded"):
		return &RemoteError{Kind: KindRateLimit, Status: resp.StatusCode, Body: text}
	case resp.StatusCode == http.StatusForbidden &&
		(strings.Contains(text, "Bad credentials") || strings.Contains(text, "Invalid token")):
		return &RemoteError{Kind: KindAuth, Status: resp.StatusCode, Body: text}
	case resp.StatusCode == http.StatusNotFound:
		return &RemoteError{Kind: KindNotFound, Status: resp.StatusCode, Resource: "resource", Body: text}
	default:
		return &RemoteError{Kind: KindServer, Status: resp.StatusCode, Body: text}
	}
}
