package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/vshulcz/harmonia/internal/misc"
)

const defaultProxyAddr = "http://localhost:8080"

// MonitorConfig configures the terminal monitor.
type MonitorConfig struct {
	Address      string
	LogLevel     string
	PollInterval time.Duration
	Timeout      time.Duration
}

type monitorEnv struct {
	Address  string `envconfig:"ADDRESS"`
	Interval string `envconfig:"POLL_INTERVAL"`
	Timeout  string `envconfig:"UPSTREAM_TIMEOUT"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}

// LoadMonitorConfig merges ENV > CLI > defaults.
func LoadMonitorConfig(args []string, out io.Writer) (MonitorConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt, pollOpt, timeoutOpt, levelOpt string
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("status site address (host:port or URL), default: %s", defaultProxyAddr))
	fs.StringVar(&pollOpt, "p", "", fmt.Sprintf("poll interval (seconds or duration), default: %s", defaultPollInterval))
	fs.StringVar(&timeoutOpt, "t", "", fmt.Sprintf("request timeout, default: %s", defaultTimeout))
	fs.StringVar(&levelOpt, "l", "", fmt.Sprintf("log level, default: %s", defaultLogLevel))

	if err := fs.Parse(args); err != nil {
		return MonitorConfig{}, err
	}

	var env monitorEnv
	if err := readEnv(&env); err != nil {
		return MonitorConfig{}, err
	}

	addr, err := normalizeBaseURL(misc.FirstNonEmpty(env.Address, addrOpt, defaultProxyAddr))
	if err != nil {
		return MonitorConfig{}, fmt.Errorf("server address: %w", err)
	}
	poll, err := pickDuration("poll interval", env.Interval, pollOpt, defaultPollInterval)
	if err != nil {
		return MonitorConfig{}, err
	}
	timeout, err := pickDuration("request timeout", env.Timeout, timeoutOpt, defaultTimeout)
	if err != nil {
		return MonitorConfig{}, err
	}
	level, err := pickLogLevel(env.LogLevel, levelOpt)
	if err != nil {
		return MonitorConfig{}, err
	}

	return MonitorConfig{
		Address:      addr,
		LogLevel:     level,
		PollInterval: poll,
		Timeout:      timeout,
	}, nil
}
