package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("SHELFSYNC_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SHELFSYNC_JWT_ISSUER")
	if issuer == "" {
		issuer = "shelfd"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("SHELFSYNC_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			duration = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

type ClientConfig struct {
	BaseURL      string
	TokenPath    string
	ProbeTimeout time.Duration
}

func LoadClientConfig() ClientConfig {
	base := os.Getenv("SHELFSYNC_API")
	if base == "" {
		base = "http://localhost:8080"
	}

	tokenPath := os.Getenv("SHELFSYNC_TOKEN_PATH")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		tokenPath = filepath.Join(home, ".shelfsync", "token.json")
	}

	probe := 5 * time.Second
	if s := os.Getenv("SHELFSYNC_PROBE_TIMEOUT_SECS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			probe = time.Duration(n) * time.Second
		}
	}

	return ClientConfig{
		BaseURL:      base,
		TokenPath:    tokenPath,
		ProbeTimeout: probe,
	}
}
