package mailer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/narro/internal/common"
)

// Config is the effective SMTP configuration: file values overridden by smtp_* KV entries
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	Recipients []string
	UseTLS     bool
	Timeout    time.Duration
}

// IsComplete reports whether host, credentials and at least one recipient are present
func (c *Config) IsComplete() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && len(c.Recipients) > 0
}

// GetConfig resolves the SMTP configuration
func (s *Service) GetConfig(ctx context.Context) *Config {
	config := &Config{
		Host:       s.config.Host,
		Port:       s.config.Port,
		Username:   s.config.Username,
		Password:   s.config.Password,
		From:       s.config.From,
		FromName:   s.config.FromName,
		Recipients: s.config.Recipients,
		UseTLS:     s.config.UseTLS,
		Timeout:    common.ParseDuration(s.config.Timeout, 30*time.Second),
	}

	if s.kvStorage != nil {
		kv := func(key string) string {
			value, err := s.kvStorage.Get(ctx, key)
			if err != nil {
				return ""
			}
			return strings.TrimSpace(value)
		}

		if host := kv("smtp_host"); host != "" {
			config.Host = host
		}
		if port, err := strconv.Atoi(kv("smtp_port")); err == nil && port > 0 {
			config.Port = port
		}
		if username := kv("smtp_username"); username != "" {
			config.Username = username
		}
		if password := kv("smtp_password"); password != "" {
			config.Password = password
		}
		if from := kv("smtp_from"); from != "" {
			config.From = from
		}
		if fromName := kv("smtp_from_name"); fromName != "" {
			config.FromName = fromName
		}
		if tlsStr := kv("smtp_use_tls"); tlsStr != "" {
			config.UseTLS = strings.ToLower(tlsStr) == "true" || tlsStr == "1"
		}
		if recipients := kv("smtp_recipients"); recipients != "" {
			config.Recipients = splitRecipients(recipients)
		}
	}

	if config.Port == 0 {
		config.Port = 587
	}
	if config.From == "" {
		config.From = config.Username
	}
	if config.FromName == "" {
		config.FromName = "Narro"
	}

	return config
}

func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
