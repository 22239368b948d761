package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProxy(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must not be negative")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !isURL(topic) {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateProxy() error {
	parsed, err := url.Parse(c.Proxy.Upstream)
	if err != nil {
		return fmt.Errorf("proxy.upstream: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("proxy.upstream must be an http(s) URL, got %q", c.Proxy.Upstream)
	}
	if parsed.Host == "" {
		return fmt.Errorf("proxy.upstream is missing a host: %q", c.Proxy.Upstream)
	}
	if err := validateHostPort("proxy.listen", c.Proxy.Listen); err != nil {
		return err
	}
	if c.Proxy.MaxBodyBytes < 0 {
		return errors.New("proxy.max_body_bytes must be positive")
	}
	if strings.ContainsAny(c.Proxy.DeliveryFormat, " \t\"") {
		return fmt.Errorf("proxy.delivery_format contains invalid characters: %q", c.Proxy.DeliveryFormat)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.PollIntervalMS <= 0 {
		return errors.New("session.poll_interval_ms must be positive")
	}
	if c.Session.Watch && c.IsPageURL() {
		return errors.New("session.watch requires session.page_source to be a file path")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if strings.ContainsAny(c.Download.FilenamePrefix, `/\`) {
		return fmt.Errorf("download.filename_prefix must not contain path separators: %q", c.Download.FilenamePrefix)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if err := validateHostPort("api.bind", c.API.Bind); err != nil {
		return err
	}
	if c.API.Bind == c.Proxy.Listen {
		return errors.New("api.bind and proxy.listen must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func validateHostPort(key, value string) error {
	if _, _, err := net.SplitHostPort(value); err != nil {
		return fmt.Errorf("%s must be host:port: %w", key, err)
	}
	return nil
}
