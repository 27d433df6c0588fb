/*
Package configs is responsible for loading and parsing the application's configuration settings.

It builds one immutable AppConfig from operating system environment variables at process
start: platform credentials, CORS allowed origins, the optional shared room password,
token lifetime, and the policy toggles that relax the strict issuance rules.
*/
package configs

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultChannelPattern is the allow-list pattern for RTC channel names:
// ASCII letters, digits, '.', '_' and '-', between 3 and 64 characters.
const DefaultChannelPattern = `^[A-Za-z0-9._-]{3,64}$`

// DefaultTokenTTLSeconds is the credential lifetime used when TOKEN_TTL_SECONDS is unset.
const DefaultTokenTTLSeconds = 120

// AppConfig contains all configuration parameters required for the application to run.
// It is constructed once at startup and treated as read-only afterwards; every component
// receives it by parameter instead of reading the environment itself.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Platform Credentials
	AppID          string
	AppCertificate string

	// Security Settings
	AllowedOrigins  []string
	RoomPassword    string
	TokenTTLSeconds int
	ProdOnly        bool
	ChannelPattern  *regexp.Regexp

	// Policy toggles. All default to false; enabling any of them weakens the
	// strict issuance policy and must be an explicit deployment decision.
	AllowClientUID     bool
	AllowClientRole    bool
	AllowInsecureQuery bool

	// Rate Limiting Settings
	TokenRate  float64
	TokenBurst int

	// Audit Settings
	AuditDatabaseDSN string
	MetricsEnabled   bool
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type
// conversions and validation. AppID and AppCertificate are deliberately not required
// here: the policy engine fails closed per request when they are missing, so a
// misconfigured deployment answers with server_not_configured instead of crashing.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Platform Credentials ---
	cfg.AppID = os.Getenv("APP_ID")
	cfg.AppCertificate = os.Getenv("APP_CERTIFICATE")

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	cfg.RoomPassword = os.Getenv("ROOM_PASSWORD")

	ttlStr := os.Getenv("TOKEN_TTL_SECONDS")
	if ttlStr == "" {
		cfg.TokenTTLSeconds = DefaultTokenTTLSeconds
	} else {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL_SECONDS environment variable: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("TOKEN_TTL_SECONDS must be positive, got %d", ttl)
		}
		cfg.TokenTTLSeconds = ttl
	}

	// Production-only issuance defaults to on; the signing certificate must never
	// be exercised from a preview or staging deployment.
	cfg.ProdOnly = os.Getenv("TOKEN_PROD_ONLY") != "false"

	patternStr := os.Getenv("CHANNEL_PATTERN")
	if patternStr == "" {
		patternStr = DefaultChannelPattern
	}
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_PATTERN environment variable: %w", err)
	}
	cfg.ChannelPattern = pattern

	// --- Policy Toggles ---
	cfg.AllowClientUID = os.Getenv("ALLOW_CLIENT_UID") == "true"
	cfg.AllowClientRole = os.Getenv("ALLOW_CLIENT_ROLE") == "true"
	cfg.AllowInsecureQuery = os.Getenv("ALLOW_INSECURE_QUERY") == "true"

	// --- Rate Limiting Settings ---
	rateStr := os.Getenv("TOKEN_RATE")
	if rateStr == "" {
		cfg.TokenRate = 1.0
	} else {
		r, err := strconv.ParseFloat(rateStr, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_RATE environment variable: %q", rateStr)
		}
		cfg.TokenRate = r
	}

	burstStr := os.Getenv("TOKEN_BURST")
	if burstStr == "" {
		cfg.TokenBurst = 5
	} else {
		b, err := strconv.Atoi(burstStr)
		if err != nil || b <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_BURST environment variable: %q", burstStr)
		}
		cfg.TokenBurst = b
	}

	// --- Audit Settings ---
	cfg.AuditDatabaseDSN = os.Getenv("AUDIT_DATABASE_URL")
	cfg.MetricsEnabled = os.Getenv("METRICS_ENABLED") == "true"

	return cfg, nil
}
