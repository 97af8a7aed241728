package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// GraphConfig holds the Microsoft Graph and identity settings.
type GraphConfig struct {
	// TenantID is the Azure AD tenant (AZURE_TENANT_ID / TENANT_ID)
	TenantID string
	// ClientID is the registered public client (AZURE_CLIENT_ID / CLIENT_ID)
	ClientID string
	// PlanID pins the Planner plan directly, skipping name resolution
	PlanID string
	// PlanName is resolved against the plan listing when PlanID is empty
	PlanName string
	// TokenCachePath is where the credential blob lives
	TokenCachePath string
}

// OracleConfig holds the knowledge-base host settings.
type OracleConfig struct {
	Host     string
	Port     int
	User     string
	KeyPath  string
	Password string
	// KnowledgeBasePath is the directory searched by search_oracle
	KnowledgeBasePath string
}

// WatchdogConfig holds the feed-scanning job settings.
type WatchdogConfig struct {
	// FeedURLs are the RSS feeds scanned each pass
	FeedURLs []string
	// BucketName is where signal tasks land
	BucketName string
	// HistoryPath is the de-dup store of already-seen links
	HistoryPath string
	// WebhookURL is the optional Teams channel for alerts
	WebhookURL string
	// ScanInterval is the time between passes
	ScanInterval time.Duration
}

// Config is the full runtime configuration for both binaries.
type Config struct {
	Graph    GraphConfig
	Oracle   OracleConfig
	Watchdog WatchdogConfig
}

const (
	DefaultPlanName          = "Launch Operations"
	DefaultOracleHost        = "raspberrypi.local"
	DefaultOraclePort        = 22
	DefaultKnowledgeBase     = "/home/pi/charter-and-stone/knowledge_base"
	DefaultWatchdogBucket    = "Watchdog Inbox"
	DefaultHistoryFile       = "watchdog_history.json"
	DefaultScanInterval      = 60 * time.Minute
	defaultTokenCacheSubpath = ".charterstone/token_cache.json"
)

// DefaultFeedURLs returns the built-in scan list: distress and forecast
// searches plus sector news.
func DefaultFeedURLs() []string {
	return []string{
		"https://news.google.com/rss/search?q=university+president+resigns+OR+financial+exigency+OR+faculty+vote+no+confidence+OR+budget+deficit+layoffs&hl=en-US&gl=US&ceid=US:en",
		"https://news.google.com/rss/search?q=university+board+of+regents+approves+%22strategic+plan%22+OR+%22master+plan%22+OR+%22enrollment+strategic+plan%22&hl=en-US&gl=US&ceid=US:en",
		"https://news.google.com/rss/search?q=university+%22FY26+budget%22+presentation+OR+%22capital+improvement+plan%22+approved+OR+%22enrollment+management%22+budget&hl=en-US&gl=US&ceid=US:en",
		"https://www.highereddive.com/feeds/news",
	}
}

// Load reads configuration from a .env file (best effort) and the
// environment. Validation of the required Graph fields happens here;
// Oracle credentials are validated lazily at first connect.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Graph: GraphConfig{
			TenantID:       firstEnv("AZURE_TENANT_ID", "TENANT_ID"),
			ClientID:       firstEnv("AZURE_CLIENT_ID", "CLIENT_ID"),
			PlanID:         os.Getenv("PLANNER_PLAN_ID"),
			PlanName:       envOr("PLANNER_PLAN_NAME", DefaultPlanName),
			TokenCachePath: envOr("TOKEN_CACHE_PATH", defaultTokenCachePath()),
		},
		Oracle: OracleConfig{
			Host:              envOr("SSH_HOST", DefaultOracleHost),
			Port:              envIntOr("SSH_PORT", DefaultOraclePort),
			User:              os.Getenv("SSH_USER"),
			KeyPath:           os.Getenv("SSH_KEY_PATH"),
			Password:          os.Getenv("SSH_PASSWORD"),
			KnowledgeBasePath: envOr("ORACLE_KB_PATH", DefaultKnowledgeBase),
		},
		Watchdog: WatchdogConfig{
			FeedURLs:     envListOr("WATCHDOG_FEEDS", DefaultFeedURLs()),
			BucketName:   envOr("WATCHDOG_BUCKET", DefaultWatchdogBucket),
			HistoryPath:  envOr("WATCHDOG_HISTORY_PATH", DefaultHistoryFile),
			WebhookURL:   os.Getenv("TEAMS_WEBHOOK_URL"),
			ScanInterval: envDurationOr("WATCHDOG_INTERVAL", DefaultScanInterval),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields every binary needs up front.
func (c *Config) Validate() error {
	if c.Graph.TenantID == "" {
		return graph.NewValidationError("AZURE_TENANT_ID is required")
	}
	if c.Graph.ClientID == "" {
		return graph.NewValidationError("AZURE_CLIENT_ID is required")
	}
	if c.Oracle.Port < 1 || c.Oracle.Port > 65535 {
		return graph.NewValidationError("SSH_PORT must be a valid port number")
	}
	if c.Watchdog.ScanInterval <= 0 {
		return graph.NewValidationError("WATCHDOG_INTERVAL must be positive")
	}
	return nil
}

func defaultTokenCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultTokenCacheSubpath
	}
	return filepath.Join(home, defaultTokenCacheSubpath)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envListOr(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var urls []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if len(urls) == 0 {
		return fallback
	}
	return urls
}
