package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-chess/internal/obslog"
)

var ErrMissing = errors.New("required config missing")

// Archive backends.
const (
	ArchiveMemory   = "memory"
	ArchivePostgres = "postgres"
	ArchiveBadger   = "badger"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL string

	ArchiveBackend string
	DatabaseURL    string
	ArchiveDir     string

	GameTTLSec  int
	LobbyTTLSec int

	AllowedRooms []string
	MessagesDir  string

	EgressMode   string // http | ws | auto
	EgressDryRun bool

	Log obslog.Options
}

// fileConfig keys mirror the env names in snake case.
type fileConfig struct {
	IrisBaseURL    string   `yaml:"iris_base_url"`
	IrisWSURL      string   `yaml:"iris_ws_url"`
	BotPrefix      string   `yaml:"bot_prefix"`
	XUserID        string   `yaml:"x_user_id"`
	XUserEmail     string   `yaml:"x_user_email"`
	XSessionID     string   `yaml:"x_session_id"`
	RedisURL       string   `yaml:"redis_url"`
	ArchiveBackend string   `yaml:"archive_backend"`
	DatabaseURL    string   `yaml:"database_url"`
	ArchiveDir     string   `yaml:"archive_dir"`
	GameTTLSec     int      `yaml:"game_ttl_sec"`
	LobbyTTLSec    int      `yaml:"lobby_ttl_sec"`
	AllowedRooms   []string `yaml:"allowed_rooms"`
	MessagesDir    string   `yaml:"messages_dir"`
	EgressMode     string   `yaml:"egress_mode"`
	EgressDryRun   *bool    `yaml:"egress_dryrun"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	LogFile        string   `yaml:"log_file"`
}

// Load reads CONFIG_FILE (optional YAML) and then the environment; env wins.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ArchiveBackend: ArchiveMemory,
		ArchiveDir:     "data/archive",
		GameTTLSec:     86400,
		LobbyTTLSec:    1800,
		EgressMode:     "auto",
		Log:            obslog.OptionsFromEnv(),
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := applyYAML(cfg, raw); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAML(cfg *AppConfig, raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setStr(&cfg.IrisBaseURL, fc.IrisBaseURL)
	setStr(&cfg.IrisWSURL, fc.IrisWSURL)
	setStr(&cfg.BotPrefix, fc.BotPrefix)
	setStr(&cfg.XUserID, fc.XUserID)
	setStr(&cfg.XUserEmail, fc.XUserEmail)
	setStr(&cfg.XSessionID, fc.XSessionID)
	setStr(&cfg.RedisURL, fc.RedisURL)
	setStr(&cfg.ArchiveBackend, fc.ArchiveBackend)
	setStr(&cfg.DatabaseURL, fc.DatabaseURL)
	setStr(&cfg.ArchiveDir, fc.ArchiveDir)
	setStr(&cfg.MessagesDir, fc.MessagesDir)
	setStr(&cfg.EgressMode, fc.EgressMode)
	setStr(&cfg.Log.Level, fc.LogLevel)
	setStr(&cfg.Log.Format, fc.LogFormat)
	setStr(&cfg.Log.File, fc.LogFile)
	if fc.GameTTLSec > 0 {
		cfg.GameTTLSec = fc.GameTTLSec
	}
	if fc.LobbyTTLSec > 0 {
		cfg.LobbyTTLSec = fc.LobbyTTLSec
	}
	if fc.EgressDryRun != nil {
		cfg.EgressDryRun = *fc.EgressDryRun
	}
	for _, r := range fc.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			cfg.AllowedRooms = append(cfg.AllowedRooms, s)
		}
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	envStr(&cfg.IrisBaseURL, "IRIS_BASE_URL")
	envStr(&cfg.IrisWSURL, "IRIS_WS_URL")
	envStr(&cfg.BotPrefix, "BOT_PREFIX")
	envStr(&cfg.XUserID, "X_USER_ID")
	envStr(&cfg.XUserEmail, "X_USER_EMAIL")
	envStr(&cfg.XSessionID, "X_SESSION_ID")
	envStr(&cfg.RedisURL, "REDIS_URL")
	envStr(&cfg.ArchiveBackend, "ARCHIVE_BACKEND")
	envStr(&cfg.DatabaseURL, "DATABASE_URL")
	envStr(&cfg.ArchiveDir, "ARCHIVE_DIR")
	envStr(&cfg.MessagesDir, "MESSAGES_DIR")
	envStr(&cfg.EgressMode, "EGRESS_MODE")
	envInt(&cfg.GameTTLSec, "GAME_TTL_SEC")
	envInt(&cfg.LobbyTTLSec, "LOBBY_TTL_SEC")

	if v := strings.TrimSpace(os.Getenv("EGRESS_DRYRUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ROOMS")); v != "" {
		cfg.AllowedRooms = nil
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}
}

// Validate checks required keys and enum values.
func (c *AppConfig) Validate() error {
	required := []struct{ name, val string }{
		{"IRIS_BASE_URL", c.IrisBaseURL},
		{"IRIS_WS_URL", c.IrisWSURL},
		{"BOT_PREFIX", c.BotPrefix},
		{"REDIS_URL", c.RedisURL},
	}
	for _, r := range required {
		if r.val == "" {
			return fmt.Errorf("%w: %s", ErrMissing, r.name)
		}
	}

	c.ArchiveBackend = strings.ToLower(c.ArchiveBackend)
	switch c.ArchiveBackend {
	case ArchiveMemory:
	case ArchivePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL (archive backend postgres)", ErrMissing)
		}
	case ArchiveBadger:
		if c.ArchiveDir == "" {
			return fmt.Errorf("%w: ARCHIVE_DIR (archive backend badger)", ErrMissing)
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.ArchiveBackend)
	}

	c.EgressMode = strings.ToLower(c.EgressMode)
	switch c.EgressMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("unknown EGRESS_MODE %q", c.EgressMode)
	}
	return nil
}

// RoomAllowed reports whether room may use the bot. An empty list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func setStr(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func envStr(dst *string, key string) { setStr(dst, os.Getenv(key)) }

func envInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
