package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	ERPAPIBaseURL    string
	ERPAPIToken      string
	ERPRateLimitRPS  int
	ERPTimeoutMs     int
	ERPLookbackHours int
	ERPLookbackDays  int

	MatchSignalThreshold float64
	MatchPlainThreshold  float64
	MatchFuzzyFloor      float64
	SupplierBlacklist    []string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailMarkRead     bool

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	ListenerProvider     string
	ListenerLabel        string
	ListenerIntervalSec  int
	ListenerFetchMax     int
	ListenerProcessBatch int
	ListenerAutoExport   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ERPAPIBaseURL:    getEnv("ERP_API_BASE_URL", ""),
		ERPAPIToken:      getEnv("ERP_API_TOKEN", ""),
		ERPRateLimitRPS:  getEnvInt("ERP_RATE_LIMIT_RPS", 5),
		ERPTimeoutMs:     getEnvInt("ERP_TIMEOUT_MS", 30000),
		ERPLookbackHours: getEnvInt("ERP_INCREMENTAL_HOURS", 24),
		ERPLookbackDays:  getEnvInt("ERP_INCREMENTAL_DAYS", 2),

		// Descriptions carrying explicit strength/variant signal are
		// accepted at the lower threshold.
		MatchSignalThreshold: getEnvFloat("MATCH_SIGNAL_THRESHOLD", 0.60),
		MatchPlainThreshold:  getEnvFloat("MATCH_PLAIN_THRESHOLD", 0.75),
		MatchFuzzyFloor:      getEnvFloat("MATCH_FUZZY_FLOOR", 0.55),
		SupplierBlacklist:    getEnvList("SUPPLIER_BLACKLIST"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailMarkRead:     getEnvBool("GMAIL_MARK_READ", true),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		ListenerProvider:     getEnv("ORDER_LISTENER_PROVIDER", "imap"),
		ListenerLabel:        getEnv("ORDER_LISTENER_LABEL", "INBOX"),
		ListenerIntervalSec:  getEnvInt("ORDER_LISTENER_INTERVAL_SEC", 30),
		ListenerFetchMax:     getEnvInt("ORDER_LISTENER_FETCH_MAX", 20),
		ListenerProcessBatch: getEnvInt("ORDER_LISTENER_PROCESS_BATCH", 20),
		ListenerAutoExport:   getEnvBool("ORDER_LISTENER_AUTO_EXPORT", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if parsed, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return parsed
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return parsed
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string) []string {
	var out []string
	for _, p := range strings.Split(getEnv(key, ""), ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
