// Package config reads engine settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvJSEngine          = "YTPLAYER_JS_ENGINE"
	EnvJSTimeout         = "YTPLAYER_JS_TIMEOUT"
	EnvHTTPTimeout       = "YTPLAYER_HTTP_TIMEOUT"
	EnvHTTPRetries       = "YTPLAYER_HTTP_RETRIES"
	EnvUserAgent         = "YTPLAYER_USER_AGENT"
	EnvProxy             = "YTPLAYER_PROXY"
	EnvManifestCacheSize = "YTPLAYER_MANIFEST_CACHE_SIZE"
)

// Settings holds the values the engine is built from. Zero values mean
// "use the component default".
type Settings struct {
	JSEngine          string
	JSTimeout         time.Duration
	HTTPTimeout       time.Duration
	HTTPRetries       int
	UserAgent         string
	ProxyURL          string
	ManifestCacheSize int
}

// Load reads the given .env files into the process environment without
// overriding variables that are already set. With no paths, ".env" is used
// and a missing file is not an error.
func Load(paths ...string) error {
	if len(paths) == 0 {
		err := godotenv.Load(".env")
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(paths...)
}

// FromEnv builds Settings from the current environment.
func FromEnv() Settings {
	return Settings{
		JSEngine:          strings.ToLower(GetEnv(EnvJSEngine, "goja")),
		JSTimeout:         GetEnvDuration(EnvJSTimeout, 0),
		HTTPTimeout:       GetEnvDuration(EnvHTTPTimeout, 0),
		HTTPRetries:       GetEnvInt(EnvHTTPRetries, 0),
		UserAgent:         GetEnv(EnvUserAgent, ""),
		ProxyURL:          GetEnv(EnvProxy, ""),
		ManifestCacheSize: GetEnvInt(EnvManifestCacheSize, 0),
	}
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration parses a Go duration ("15s") or a plain number of seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
