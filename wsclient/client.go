// Package wsclient queries the web services of an analysis server.
package wsclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/internal/httpclient"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/version"
)

var userAgent = version.Get().UserAgent()

// maxErrorBody bounds how much of an error response is kept in the error.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string

	Timeout           time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	BlockPrivateIP    bool
}

// Client performs authenticated GET requests against one server.
type Client struct {
	base    *url.URL
	token   string
	http    *httpclient.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// New creates a client for the server at opts.BaseURL.
func New(opts Options, log *zap.SugaredLogger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidRequest, "server URL is not configured"),
			"Set server.url in qlint.toml or QLINT_SERVER_URL.")
	}

	hc := httpclient.New(httpclient.Options{
		Timeout:        opts.Timeout,
		BlockPrivateIP: opts.BlockPrivateIP,
	})
	base, err := hc.ValidateURL(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server URL %q", opts.BaseURL)
	}

	c := &Client{
		base:  base,
		token: opts.Token,
		http:  hc,
		log:   logger.Component(log, "wsclient"),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// BaseURL returns the server URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Get requests path (relative to the server URL, query allowed) and returns
// the response body, which the caller closes. Responses outside 2xx are
// errors; 404 matches ErrNotFound.
func (c *Client) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "request rate limit")
		}
	}

	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", path)
	}
	base := *c.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	target := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", path)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.SetBasicAuth(c.token, "")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s failed", path)
	}

	c.log.Debugw("GET",
		logger.FieldPath, path,
		logger.FieldStatus, resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := errors.Newf("GET %s: HTTP %d", path, resp.StatusCode)
		if msg := strings.TrimSpace(string(body)); msg != "" {
			err = errors.WithDetail(err, msg)
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			err = errors.Mark(err, errors.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			err = errors.WithHint(err, "Check the server token (server.token or QLINT_SERVER_TOKEN).")
		}
		return nil, err
	}

	return resp.Body, nil
}

// GetString is Get for small text responses.
func (c *Client) GetString(ctx context.Context, path string) (string, error) {
	body, err := c.Get(ctx, path)
	if err != nil {
		return "", err
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read response of %s", path)
	}
	return string(b), nil
}
