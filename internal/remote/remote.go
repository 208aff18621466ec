// Package remote downloads gitignore templates from an HTTP template
// service into the local data directory.
//
// The service exposes "<url>/list", a newline or comma separated list of
// template names, and "<url>/<name>" for each template body.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/lockfile"
	"github.com/byteowlz/ignr/internal/templates"
)

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of parallel downloads.
	DefaultConcurrency = 8

	// maxBodySize caps a single response.
	maxBodySize = 4 << 20
)

// Options configures a Syncer.
type Options struct {
	// URL is the template service base URL.
	URL string

	// Dir receives one <name>.gitignore per downloaded template.
	Dir string

	// Concurrency limits parallel downloads. Default: 8
	Concurrency int

	// Timeout bounds each request. Default: 30s
	Timeout time.Duration

	// Retry is the backoff for transient failures.
	Retry ierrors.RetryConfig

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client

	// OnFound is called once with the number of listed templates.
	OnFound func(n int)

	// OnProgress is called after each template finishes.
	OnProgress func(done, total int)
}

// Report summarizes a sync.
type Report struct {
	Found  int      `json:"found" yaml:"found"`
	Synced int      `json:"synced" yaml:"synced"`
	Failed int      `json:"failed" yaml:"failed"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Syncer fetches templates from a remote service.
type Syncer struct {
	opts    Options
	client  *http.Client
	breaker *ierrors.CircuitBreaker
	logger  *slog.Logger
}

// NewSyncer creates a Syncer with defaults applied.
func NewSyncer(opts Options) *Syncer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry == (ierrors.RetryConfig{}) {
		opts.Retry = ierrors.DefaultRetryConfig()
	}
	opts.URL = strings.TrimRight(opts.URL, "/")

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Syncer{
		opts:    opts,
		client:  client,
		breaker: ierrors.NewCircuitBreaker(5, 30*time.Second),
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger for download diagnostics.
func (s *Syncer) WithLogger(logger *slog.Logger) *Syncer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// List fetches and parses the template index.
func (s *Syncer) List(ctx context.Context) ([]string, error) {
	listURL := s.opts.URL + "/list"
	s.logger.Info("fetching template list", slog.String("url", listURL))

	body, err := ierrors.RetryWithResult(ctx, s.opts.Retry, func() ([]byte, error) {
		return s.get(ctx, listURL)
	})
	if err != nil {
		return nil, err
	}
	return ParseList(string(body)), nil
}

// Sync lists the remote templates and downloads each one. A template
// that fails is counted and skipped; only a failed listing, a cancelled
// context or an unusable target directory abort the run.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Found: len(names)}
	if s.opts.OnFound != nil {
		s.opts.OnFound(len(names))
	}

	var (
		mu        sync.Mutex
		done      atomic.Int64
		fetched   = make(map[string][]byte, len(names))
		failures  []string
		recordErr = func(name string, err error) {
			mu.Lock()
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			mu.Unlock()
			s.logger.Debug("template download failed",
				slog.String("template", name),
				slog.String("error", err.Error()))
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, name := range names {
		g.Go(func() error {
			defer func() {
				n := done.Add(1)
				if s.opts.OnProgress != nil {
					s.opts.OnProgress(int(n), len(names))
				}
			}()

			if !validName(name) {
				recordErr(name, errors.New("invalid template name"))
				return nil
			}

			body, err := s.fetch(gctx, name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				recordErr(name, err)
				return nil
			}

			mu.Lock()
			fetched[name] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	synced, writeFailures, err := s.write(ctx, fetched)
	if err != nil {
		return nil, err
	}
	failures = append(failures, writeFailures...)
	sort.Strings(failures)

	report.Synced = synced
	report.Failed = len(names) - synced
	report.Errors = failures

	s.logger.Info("template sync complete",
		slog.Int("found", report.Found),
		slog.Int("synced", report.Synced),
		slog.Int("failed", report.Failed))
	return report, nil
}

// fetch downloads one template through the circuit breaker. Permanent
// failures such as 404 do not count against the breaker.
func (s *Syncer) fetch(ctx context.Context, name string) ([]byte, error) {
	var (
		body      []byte
		permanent error
	)
	err := s.breaker.Execute(func() error {
		b, err := ierrors.RetryWithResult(ctx, s.opts.Retry, func() ([]byte, error) {
			return s.get(ctx, s.opts.URL+"/"+name)
		})
		if err != nil {
			if !ierrors.IsRetryable(err) {
				permanent = err
				return nil
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, permanent
	}
	return body, nil
}

// write stores the downloaded templates under the directory lock.
func (s *Syncer) write(ctx context.Context, fetched map[string][]byte) (int, []string, error) {
	var failures []string
	synced := 0

	err := lockfile.ForDir(s.opts.Dir).Do(ctx, func() error {
		if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
			return ierrors.New(ierrors.ErrCodeDataDir,
				fmt.Sprintf("cannot create %s", s.opts.Dir), err)
		}
		for name, body := range fetched {
			path := filepath.Join(s.opts.Dir, name+templates.FileExt)
			if err := os.WriteFile(path, body, 0o644); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
				s.logger.Warn("failed to write template",
					slog.String("template", name),
					slog.String("error", err.Error()))
				continue
			}
			synced++
		}
		return nil
	})
	return synced, failures, err
}

// get performs one request. 4xx responses are permanent; network errors
// and 5xx responses may be retried.
func (s *Syncer) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ierrors.Permanent(ierrors.New(ierrors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid URL %q", url), err))
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ierrors.Permanent(ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ierrors.New(ierrors.ErrCodeNetworkTimeout,
				fmt.Sprintf("request to %s timed out", url), err)
		}
		return nil, ierrors.New(ierrors.ErrCodeNetworkUnavailable,
			fmt.Sprintf("request to %s failed", url), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		statusErr := ierrors.New(ierrors.ErrCodeRemoteStatus,
			fmt.Sprintf("%s returned HTTP %d", url, resp.StatusCode), nil)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			statusErr.Retryable = true
			return nil, statusErr
		}
		return nil, ierrors.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, ierrors.New(ierrors.ErrCodeNetworkUnavailable,
			fmt.Sprintf("reading %s", url), err)
	}
	return body, nil
}

// ParseList splits a template index into lower-cased, de-duplicated names
// in first-seen order.
func ParseList(text string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(text, "\n") {
		for _, field := range strings.Split(line, ",") {
			name := strings.ToLower(strings.TrimSpace(field))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// validName rejects names that would escape the template directory.
func validName(name string) bool {
	return name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.ContainsRune(name, 0)
}
