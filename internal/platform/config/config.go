package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transports the server can speak.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment variables read by FromEnv.
const (
	EnvTransport     = "PLAINGOV_TRANSPORT"
	EnvAddr          = "PLAINGOV_ADDR"
	EnvFetchTimeout  = "PLAINGOV_FETCH_TIMEOUT"
	EnvFetchRetries  = "PLAINGOV_FETCH_RETRIES"
	EnvUserAgent     = "PLAINGOV_USER_AGENT"
	EnvLogLevel      = "PLAINGOV_LOG_LEVEL"
	EnvLogFormat     = "PLAINGOV_LOG_FORMAT"
	EnvJWTSigningKey = "PLAINGOV_JWT_SIGNING_KEY"
	EnvCORSOrigins   = "PLAINGOV_CORS_ORIGINS"
	EnvCatalog       = "PLAINGOV_CATALOG"
)

// Server captures process level configuration.
type Server struct {
	Transport     string
	Addr          string
	FetchTimeout  time.Duration
	FetchRetries  uint64
	UserAgent     string
	LogLevel      string
	LogFormat     string
	JWTSigningKey string
	CORSOrigins   []string
	// CatalogPath replaces the embedded program catalog when set.
	CatalogPath string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Server {
	return Server{
		Transport:    TransportStdio,
		Addr:         ":8080",
		FetchTimeout: 15 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	cfg := Defaults()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get(EnvTransport); v != "" {
		cfg.Transport = strings.ToLower(v)
	}
	if v := get(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := get(EnvFetchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvFetchTimeout, err)
		}
		cfg.FetchTimeout = d
	}
	if v := get(EnvFetchRetries); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvFetchRetries, err)
		}
		cfg.FetchRetries = n
	}
	cfg.UserAgent = get(EnvUserAgent)
	if v := get(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := get(EnvLogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	cfg.JWTSigningKey = get(EnvJWTSigningKey)
	cfg.CORSOrigins = splitList(get(EnvCORSOrigins))
	cfg.CatalogPath = get(EnvCatalog)

	return cfg, cfg.Validate()
}

// Validate checks values that flags and env can both set.
func (c Server) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.FetchRetries > 5 {
		return fmt.Errorf("fetch retries must be at most 5, got %d", c.FetchRetries)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
