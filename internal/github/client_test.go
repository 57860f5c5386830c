package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/auth"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(auth.NewCredential("ghp_test"), Options{
		BaseURL:       srv.URL,
		RetryCount:    2,
		RetryInterval: time.Millisecond,
	}, zap.NewNop())
	return c, srv
}

func TestListInbox(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("If-Modified-Since"); got != "2024-03-01T10:00:00Z" {
			t.Errorf("If-Modified-Since = %q", got)
		}
		if got := r.Header.Get("If-None-Match"); got != `W/"old"` {
			t.Errorf("If-None-Match = %q", got)
		}
		w.Header().Set("ETag", `W/"new"`)
		w.Write([]byte(`[{"id":"1","unread":true,"reason":"mention",
			"updated_at":"2024-03-01T11:00:00Z",
			"subject":{"title":"Fix login bug","type":"Issue"},
			"repository":{"full_name":"alice/web"}}]`))
	}))

	got, err := c.ListInbox(context.Background(), "2024-03-01T10:00:00Z", `W/"old"`)
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}
	if got.NotModified {
		t.Error("NotModified = true")
	}
	if got.ETag != `W/"new"` {
		t.Errorf("ETag = %q", got.ETag)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "1" || got.Items[0].Reason != "mention" {
		t.Errorf("Items = %+v", got.Items)
	}
}

func TestListInboxNotModified(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))

	got, err := c.ListInbox(context.Background(), "", `W/"x"`)
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}
	if !got.NotModified {
		t.Error("NotModified = false, want true")
	}
	if got.Items != nil {
		t.Errorf("Items = %v, want nil", got.Items)
	}
}

func TestListInboxRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"API rate limit exceeded for user"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))

	got, err := c.ListInbox(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}
	if got.NotModified || len(got.Items) != 0 {
		t.Errorf("result = %+v", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestListInboxAuthFailureIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))

	_, err := c.ListInbox(context.Background(), "", "")
	if !IsAuth(err) {
		t.Fatalf("error = %v, want auth kind", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (no retry on terminal failure)", n)
	}
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/notifications/threads/42" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusResetContent)
	}))

	if err := c.MarkRead(context.Background(), "42"); err != nil {
		t.Errorf("MarkRead() error = %v", err)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := c.MarkRead(context.Background(), "gone")
	var re *RemoteError
	if !errors.As(err, &re) || re.Kind != KindNotFound {
		t.Errorf("MarkRead() error = %v, want not-found kind", err)
	}
	if re.ID != "gone" {
		t.Errorf("ID = %q, want gone", re.ID)
	}
}

func TestValidateCredential(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/user" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Write([]byte(`{"login":"alice"}`))
		}))
		ok, err := c.ValidateCredential(context.Background())
		if err != nil || !ok {
			t.Errorf("ValidateCredential() = %v, %v; want true, nil", ok, err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		ok, err := c.ValidateCredential(context.Background())
		if err != nil {
			t.Errorf("ValidateCredential() error = %v, want nil on auth rejection", err)
		}
		if ok {
			t.Error("ValidateCredential() = true, want false")
		}
	})

	t.Run("network failure surfaces as error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close() // connection refused from here on
		c := New(auth.NewCredential("x"), Options{BaseURL: srv.URL}, zap.NewNop())

		_, err := c.ValidateCredential(context.Background())
		if !IsNetwork(err) {
			t.Errorf("error = %v, want network kind", err)
		}
	})
}

func TestRateLimitEndpoint(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":{"core":{"limit":5000,"remaining":4321,"reset":1709290000}}}`))
	}))

	rl, err := c.RateLimit(context.Background())
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	if rl.Limit != 5000 || rl.Remaining != 4321 {
		t.Errorf("RateLimit() = %+v", rl)
	}
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"unauthorized", 401, "", KindAuth},
		{"rate limited", 403, `{"message":"API rate limit exceeded"}`, KindRateLimit},
		{"bad credentials on 403", 403, `{"message":"Bad credentials"}`, KindAuth},
		{"not found", 404, "", KindNotFound},
		{"server error", 500, "", KindServer},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			// Use RateLimit as the probe: it classifies without retrying.
			_, err := c.RateLimit(context.Background())

			var re *RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want RemoteError", err)
			}
			if re.Kind != tc.kind {
				t.Errorf("Kind = %s, want %s", re.Kind, tc.kind)
			}
			if re.Status != tc.status {
				t.Errorf("Status = %d, want %d", re.Status, tc.status)
			}
		})
	}
}
