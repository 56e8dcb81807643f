// Package session implements the authenticated HTTP client used to talk to
// the remote tree service: login, rate-limited retrying GETs, and response
// classification. Grounded on original_source/controller/session.py, wired
// through the project's logger/config idiom the way the teacher's
// internal/database package wires the MySQL driver.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dbsmedya/fscrawl/internal/config"
	"github.com/dbsmedya/fscrawl/internal/logger"
)

// AuthError indicates an unrecoverable login failure (spec.md §7).
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "auth error: " + e.Reason }

// ErrNotFound is the permanent-not-found classification (404/405/410) —
// spec.md §4.1 response classification.
var ErrNotFound = errors.New("resource not found")

// Authenticator performs the service-specific OAuth-like handshake and
// returns the session cookie value plus the logged-in user's own person
// id, preferred language, and display name. The handshake itself
// (credential prompting, the cookie dance) is out of scope per spec.md §1;
// this interface is the core's only dependency on it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Identity, error)
}

// Identity is what a successful login reveals about the authenticated user.
type Identity struct {
	Cookie      string
	PersonID    string
	Language    string
	DisplayName string
}

// Session issues authenticated GET requests against the remote base URL,
// preserving a single session cookie across the crawl and reauthenticating
// transparently on 401.
type Session struct {
	baseURL string
	client  *http.Client
	auth    Authenticator
	cfg     config.ThrottleConfig
	timeout time.Duration
	verbose bool
	log     *logger.Logger

	username, password string
	identity           Identity
	limiter            *rate.Limiter
	counter            int64
}

// New creates a Session against baseURL. The session is not logged in
// until Login is called.
func New(baseURL string, auth Authenticator, cfg config.ThrottleConfig, timeout time.Duration, verbose bool, log *logger.Logger) *Session {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Session{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		auth:    auth,
		cfg:     cfg,
		timeout: timeout,
		verbose: verbose,
		log:     log,
		limiter: limiter,
	}
}

// Login performs the handshake and records the session cookie and user
// identity. It retries its own transient failures up to cfg.MaxRetries
// before returning AuthError.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.username, s.password = username, password
	var lastErr error
	delay := time.Duration(s.cfg.BackoffBaseSeconds * float64(time.Second))
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		identity, err := s.auth.Login(ctx, username, password)
		if err == nil {
			s.identity = identity
			s.log.Infow("logged in", "person_id", identity.PersonID, "lang", identity.Language)
			return nil
		}
		lastErr = err
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return authErr
		}
		s.log.Warnw("login attempt failed", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return &AuthError{Reason: ctx.Err().Error()}
		case <-time.After(delay):
		}
		delay = nextBackoff(delay, s.cfg)
	}
	return &AuthError{Reason: fmt.Sprintf("exhausted retries: %v", lastErr)}
}

// IsLoggedIn reports whether Login has succeeded.
func (s *Session) IsLoggedIn() bool { return s.identity.Cookie != "" }

// Identity returns the identity recorded at login.
func (s *Session) Identity() Identity { return s.identity }

// Counter returns the number of GET requests issued so far.
func (s *Session) Counter() int64 { return atomic.LoadInt64(&s.counter) }

// Result is either a decoded JSON payload or a classified error.
type Result struct {
	Body []byte
	Err  error
}

// GET issues a single authenticated GET, retrying on throttling/transient
// server errors with exponential backoff up to cfg.MaxRetries, and
// re-logging in once on 401. See spec.md §4.1 for the full classification
// table.
//
// GET is safe to call from many goroutines concurrently — the "async GET
// variant" spec.md §4.1 describes is simply calling GET from the BFS
// Engine's bounded errgroup instead of adopting a separate async client.
func (s *Session) GET(ctx context.Context, path string) Result {
	delay := time.Duration(s.cfg.BackoffBaseSeconds * float64(time.Second))
	for attempt := 0; ; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return Result{Err: err}
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return Result{Err: err}
		}
		req.AddCookie(&http.Cookie{Name: "fssessionid", Value: s.identity.Cookie})

		atomic.AddInt64(&s.counter, 1)
		resp, err := s.client.Do(req)
		if err != nil {
			if attempt >= s.cfg.MaxRetries {
				return Result{Err: fmt.Errorf("transport: %w", err)}
			}
			if !s.sleepBackoff(ctx, &delay) {
				return Result{Err: ctx.Err()}
			}
			continue
		}

		outcome, retry, reloginAndRetry := s.classify(resp)
		if reloginAndRetry {
			resp.Body.Close()
			if err := s.Login(ctx, s.username, s.password); err != nil {
				return Result{Err: err}
			}
			continue
		}
		if retry {
			resp.Body.Close()
			if attempt >= s.cfg.MaxRetries {
				return Result{Err: fmt.Errorf("exhausted retries for %s", path)}
			}
			if !s.sleepBackoff(ctx, &delay) {
				return Result{Err: ctx.Err()}
			}
			continue
		}
		return outcome
	}
}

// classify implements the response classification table of spec.md §4.1.
// It returns the terminal outcome, whether the caller should retry with
// backoff, and whether the caller should re-login first.
func (s *Session) classify(resp *http.Response) (outcome Result, retry bool, relogin bool) {
	defer func() {
		if s.verbose {
			s.log.Debugw("response", "status", resp.StatusCode)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return Result{Body: nil}, false, false
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusGone:
		return Result{Err: ErrNotFound}, false, false
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{}, false, true
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Result{}, true, false
	case resp.StatusCode >= 400:
		s.log.Warnw("unexpected http error", "status", resp.StatusCode)
		return Result{Err: fmt.Errorf("http %d", resp.StatusCode)}, false, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Err: fmt.Errorf("read body: %w", err)}, false, false
	}
	if !json.Valid(body) {
		return Result{Err: fmt.Errorf("invalid json payload")}, false, false
	}
	return Result{Body: body}, false, false
}

func (s *Session) sleepBackoff(ctx context.Context, delay *time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*delay):
	}
	*delay = nextBackoff(*delay, s.cfg)
	return true
}

func nextBackoff(cur time.Duration, cfg config.ThrottleConfig) time.Duration {
	next := time.Duration(float64(cur) * cfg.BackoffMultiplier)
	max := time.Duration(cfg.BackoffMaxSeconds * float64(time.Second))
	return time.Duration(math.Min(float64(next), float64(max)))
}
