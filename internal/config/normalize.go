package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProxy()
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProxy() {
	if value, ok := os.LookupEnv("SUBGRAB_UPSTREAM"); ok && strings.TrimSpace(value) != "" {
		c.Proxy.Upstream = value
	}
	c.Proxy.Upstream = strings.TrimRight(strings.TrimSpace(c.Proxy.Upstream), "/")
	if c.Proxy.Upstream == "" {
		c.Proxy.Upstream = defaultUpstream
	}
	c.Proxy.Listen = strings.TrimSpace(c.Proxy.Listen)
	if c.Proxy.Listen == "" {
		c.Proxy.Listen = defaultProxyListen
	}
	if c.Proxy.MaxBodyBytes == 0 {
		c.Proxy.MaxBodyBytes = defaultMaxBodyBytes
	}
	c.Proxy.DeliveryFormat = strings.TrimSpace(c.Proxy.DeliveryFormat)
	if c.Proxy.DeliveryFormat == "" {
		c.Proxy.DeliveryFormat = defaultDeliveryFormat
	}
	if len(c.Proxy.InterceptPaths) > 0 {
		paths := make([]string, 0, len(c.Proxy.InterceptPaths))
		seen := make(map[string]struct{}, len(c.Proxy.InterceptPaths))
		for _, prefix := range c.Proxy.InterceptPaths {
			normalized := strings.TrimSpace(prefix)
			if normalized == "" {
				continue
			}
			if !strings.HasPrefix(normalized, "/") {
				normalized = "/" + normalized
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			paths = append(paths, normalized)
		}
		c.Proxy.InterceptPaths = paths
	}
}

func (c *Config) normalizeSession() error {
	if c.Session.PollIntervalMS == 0 {
		c.Session.PollIntervalMS = defaultPollIntervalMS
	}
	c.Session.Attribute = strings.TrimSpace(c.Session.Attribute)
	if c.Session.Attribute == "" {
		c.Session.Attribute = defaultVideoAttribute
	}
	source := strings.TrimSpace(c.Session.PageSource)
	if source == "" || isURL(source) {
		c.Session.PageSource = source
		return nil
	}
	expanded, err := expandPath(source)
	if err != nil {
		return fmt.Errorf("session.page_source: %w", err)
	}
	c.Session.PageSource = expanded
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.FilenamePrefix = strings.TrimSpace(c.Download.FilenamePrefix)
	if c.Download.FilenamePrefix == "" {
		c.Download.FilenamePrefix = defaultFilenamePrefix
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("SUBGRAB_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.API.Token = value
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// IsPageURL reports whether the session page source is fetched over HTTP.
func (c *Config) IsPageURL() bool {
	return isURL(c.Session.PageSource)
}

func isURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
