package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/vshulcz/harmonia/internal/misc"
)

const (
	defaultListenAddr   = ":8080"
	defaultAPIURL       = "http://miami.vexanode.cloud:2000"
	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 3 * time.Second
	defaultHostInterval = 15 * time.Second
)

// ServerConfig configures the status site.
type ServerConfig struct {
	Address      string
	APIURL       string
	ProbeURL     string
	LogLevel     string
	PollInterval time.Duration
	Timeout      time.Duration
	HostInterval time.Duration
}

type serverEnv struct {
	Address      string `envconfig:"ADDRESS"`
	Interval     string `envconfig:"POLL_INTERVAL"`
	Timeout      string `envconfig:"UPSTREAM_TIMEOUT"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	APIURL       string `envconfig:"API_URL"`
	ProbeURL     string `envconfig:"PROBE_URL"`
	HostInterval string `envconfig:"HOST_INTERVAL"`
}

// LoadServerConfig merges ENV > CLI > defaults.
func LoadServerConfig(args []string, out io.Writer) (ServerConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt, apiOpt, probeOpt, pollOpt, timeoutOpt, hostOpt, levelOpt string
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAddr))
	fs.StringVar(&apiOpt, "u", "", fmt.Sprintf("bot API base URL, default: %s", defaultAPIURL))
	fs.StringVar(&probeOpt, "probe", "", "latency probe URL, default: local /api/stats")
	fs.StringVar(&pollOpt, "p", "", fmt.Sprintf("poll interval (seconds or duration), default: %s", defaultPollInterval))
	fs.StringVar(&timeoutOpt, "t", "", fmt.Sprintf("upstream request timeout, default: %s", defaultTimeout))
	fs.StringVar(&hostOpt, "host-interval", "", fmt.Sprintf("host health sampling interval, default: %s", defaultHostInterval))
	fs.StringVar(&levelOpt, "l", "", fmt.Sprintf("log level, default: %s", defaultLogLevel))

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	var env serverEnv
	if err := readEnv(&env); err != nil {
		return ServerConfig{}, err
	}

	addr := normalizeListenAddr(misc.FirstNonEmpty(env.Address, addrOpt, defaultListenAddr))
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return ServerConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	api, err := normalizeBaseURL(misc.FirstNonEmpty(env.APIURL, apiOpt, defaultAPIURL))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("api url: %w", err)
	}

	probe := misc.FirstNonEmpty(env.ProbeURL, probeOpt)
	if probe == "" {
		probe = LocalProbeURL(addr)
	} else if probe, err = normalizeBaseURL(probe); err != nil {
		return ServerConfig{}, fmt.Errorf("probe url: %w", err)
	}

	poll, err := pickDuration("poll interval", env.Interval, pollOpt, defaultPollInterval)
	if err != nil {
		return ServerConfig{}, err
	}
	timeout, err := pickDuration("upstream timeout", env.Timeout, timeoutOpt, defaultTimeout)
	if err != nil {
		return ServerConfig{}, err
	}
	hostEvery, err := pickDuration("host interval", env.HostInterval, hostOpt, defaultHostInterval)
	if err != nil {
		return ServerConfig{}, err
	}
	level, err := pickLogLevel(env.LogLevel, levelOpt)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Address:      addr,
		APIURL:       api,
		ProbeURL:     probe,
		LogLevel:     level,
		PollInterval: poll,
		Timeout:      timeout,
		HostInterval: hostEvery,
	}, nil
}

// LocalProbeURL is the /api/stats address of a server listening on addr.
func LocalProbeURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/api/stats"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/stats"
}
