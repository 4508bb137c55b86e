// Package upstream talks to the bot-management API, or to a proxy exposing
// the same routes.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/harmonia/internal/domain"
	"github.com/vshulcz/harmonia/internal/misc"
	"github.com/vshulcz/harmonia/internal/ports"
)

const (
	StatsPath    = "/api/stats"
	CommandsPath = "/api/commands"

	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 3 * time.Second
	maxBodySize    = 8 << 20
)

// Client performs cache-bypassing GET requests against the bot API.
type Client struct {
	base     *url.URL
	hc       *http.Client
	probeURL string
	timeout  time.Duration
}

var (
	_ ports.RawSource       = (*Client)(nil)
	_ ports.SnapshotFetcher = (*Client)(nil)
	_ ports.Prober          = (*Client)(nil)
)

var bufferPool = misc.NewBufferPool()

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout; non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProbeURL points Probe at an absolute URL instead of the stats route.
func WithProbeURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.probeURL = u
		}
	}
}

// New normalizes the base address and returns a Client.
func New(baseAddr string, hc *http.Client, opts ...Option) (*Client, error) {
	if hc == nil {
		hc = &http.Client{}
	}
	u, err := url.Parse(normalizeBase(baseAddr))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", baseAddr)
	}
	c := &Client{base: u, hc: hc, timeout: DefaultTimeout}
	for _, o := range opts {
		o(c)
	}
	if c.probeURL == "" {
		c.probeURL = c.endpoint(StatsPath)
	}
	return c, nil
}

func normalizeBase(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// RawStats returns the /api/stats body unchanged.
func (c *Client) RawStats(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.endpoint(StatsPath))
}

// RawCommands returns the /api/commands body unchanged.
func (c *Client) RawCommands(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.endpoint(CommandsPath))
}

// Snapshot fetches and validates one stats snapshot.
func (c *Client) Snapshot(ctx context.Context) (domain.StatsSnapshot, error) {
	body, err := c.RawStats(ctx)
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	return domain.DecodeSnapshot(body)
}

// Probe completes one request to the probe URL. Any HTTP answer counts as a
// completed round trip; only transport failures are errors.
func (c *Client) Probe(ctx context.Context) (retErr error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, c.probeURL)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("%w: drain body: %v", domain.ErrUpstreamUnreachable, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	return req, nil
}

func (c *Client) get(ctx context.Context, target string) (_ []byte, retErr error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, target)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, unwrapURLError(err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	buf := bufferPool.Get()
	defer bufferPool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodySize)); err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnreachable, err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// unwrapURLError keeps the transport message readable while preserving the
// operation and target for diagnostics.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%s %s: request timed out", ue.Op, ue.URL)
	}
	return err
}
