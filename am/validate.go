package am

import (
	"net/url"
	"strings"

	"github.com/teranos/qlint/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server URL is optional, but must be absolute http(s) when set
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil {
			return errors.Wrapf(err, "server.url %q is not a valid URL", c.Server.URL)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Newf("server.url must be an absolute http(s) URL, got %q", c.Server.URL)
		}
	}

	// Timeout: zero would make every request fail immediately
	if c.Server.TimeoutSeconds <= 0 {
		return errors.Newf("server.timeout_seconds must be > 0, got %d", c.Server.TimeoutSeconds)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Server.RequestsPerSecond < 0 {
		return errors.Newf("server.requests_per_second must be >= 0, got %f", c.Server.RequestsPerSecond)
	}

	if c.Storage.Path == "" {
		return errors.New("storage.path cannot be empty")
	}

	switch strings.ToLower(c.Analysis.Mode) {
	case ModeConnected, ModeStandalone:
	default:
		return errors.Newf("analysis.mode must be %q or %q, got %q", ModeConnected, ModeStandalone, c.Analysis.Mode)
	}

	for _, lang := range c.Analysis.Languages {
		if strings.TrimSpace(lang) == "" {
			return errors.New("analysis.languages cannot contain empty entries")
		}
	}

	return nil
}
