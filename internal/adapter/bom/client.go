package bom

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bomwx/forecast-tracker/internal/observability"
)

// Client fetches BOM product files over the bureau's anonymous FTP server,
// or plain HTTP when the base URL points at a mirror.
type Client struct {
	base        *url.URL
	timeout     time.Duration
	maxRetries  int
	backoff     time.Duration
	limiter     *rate.Limiter
	circuit     *gobreaker.CircuitBreaker
	httpClient  *http.Client
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	RateLimit      float64
}

// NewClient validates the base URL and builds a fetch client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch base.Scheme {
	case "ftp", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported fetch scheme %q", base.Scheme)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bom-fetch",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		base:       base,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		backoff:    opts.InitialBackoff,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		circuit:    cb,
		httpClient: &http.Client{Timeout: opts.Timeout},
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Fetch retrieves the raw XML for one product, retrying transient failures
// with doubling backoff.
func (c *Client) Fetch(ctx context.Context, productID string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, err := c.circuit.Execute(func() (interface{}, error) {
			return c.fetchOnce(ctx, productID)
		})
		if err == nil {
			return raw.([]byte), nil
		}
		lastErr = err

		if attempt < c.maxRetries {
			c.metrics.FetchRetries.Inc()
			c.logger.Warn("product fetch failed, retrying",
				"product_id", productID, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("fetch %s after %d attempts: %w", productID, c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, productID string) ([]byte, error) {
	if c.base.Scheme == "ftp" {
		return c.fetchFTP(productID)
	}
	return c.fetchHTTP(ctx, productID)
}

func (c *Client) fetchFTP(productID string) ([]byte, error) {
	addr := c.base.Host
	if c.base.Port() == "" {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(c.timeout))
	if err != nil {
		return nil, fmt.Errorf("dial ftp %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	path := fmt.Sprintf("%s/%s.xml", c.base.Path, productID)
	resp, err := conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", path, err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func (c *Client) fetchHTTP(ctx context.Context, productID string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s.xml", c.base.String(), productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
