package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/harmonia/internal/misc"
)

const defaultLogLevel = "info"

func readEnv(spec any) error {
	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// pickDuration resolves ENV > CLI > default. Both sources accept integer
// seconds or Go duration syntax and must be positive.
func pickDuration(name, envVal, flagVal string, def time.Duration) (time.Duration, error) {
	raw := misc.FirstNonEmpty(envVal, flagVal)
	if raw == "" {
		return def, nil
	}
	d := misc.ParseDuration(raw, -1)
	if d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, raw)
	}
	return d, nil
}

func pickLogLevel(envVal, flagVal string) (string, error) {
	lvl := strings.ToLower(misc.FirstNonEmpty(envVal, flagVal, defaultLogLevel))
	if _, err := zapcore.ParseLevel(lvl); err != nil {
		return "", fmt.Errorf("invalid log level %q", lvl)
	}
	return lvl, nil
}

// normalizeListenAddr turns "8080", "http://host:8080" and ":8080" into a
// host:port listen address.
func normalizeListenAddr(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}

// normalizeBaseURL adds a scheme to bare host:port values and drops trailing slashes.
func normalizeBaseURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
	case strings.HasPrefix(s, ":"):
		s = "http://localhost" + s
	default:
		s = "http://" + s
	}
	u, err := url.ParseRequestURI(s)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid URL: %q", s)
	}
	return strings.TrimRight(s, "/"), nil
}
