package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env    string `yaml:"env"`     // "dev" | "prod"
	DBPath string `yaml:"db_path"` // e.g. "./data/attendance.db"

	Relay RelayConfig `yaml:"relay"`
	Host  HostConfig  `yaml:"host"`
}

// RelayConfig configures cmd/relay-server.
type RelayConfig struct {
	Addr                       string `yaml:"addr"`
	RegistrationTimeoutSeconds int    `yaml:"registration_timeout_seconds"`
	SendQueueSize              int    `yaml:"send_queue_size"`
}

// HostConfig configures cmd/attendance-host.
type HostConfig struct {
	RelayURL   string `yaml:"relay_url"`
	ClientName string `yaml:"client_name"`
	TargetName string `yaml:"target_name"`

	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`

	PrivilegedRole   string `yaml:"privileged_role"`
	DefaultResetTime string `yaml:"default_reset_time"`
	TimeZone         string `yaml:"time_zone"` // IANA name; empty = local

	ReconnectIntervalSeconds int `yaml:"reconnect_interval_seconds"`
}

func Default() Config {
	return Config{
		Env:    "dev",
		DBPath: "./data/attendance.db",
		Relay: RelayConfig{
			Addr:                       ":8765",
			RegistrationTimeoutSeconds: 30,
			SendQueueSize:              64,
		},
		Host: HostConfig{
			RelayURL:                 "ws://localhost:8765",
			ClientName:               "db_client",
			TargetName:               "esp_client",
			HTTPAddr:                 ":8080",
			GRPCAddr:                 ":9090",
			PrivilegedRole:           "admin",
			DefaultResetTime:         "05:00:00",
			ReconnectIntervalSeconds: 5,
		},
	}
}

// Load builds a Config from defaults, then the optional YAML file at path,
// then ATTENDANCE_* environment overrides.  An empty path falls back to
// ATTENDANCE_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("ATTENDANCE_CONFIG_PATH"))
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Env = strings.ToLower(getenvDefault("ATTENDANCE_ENV", cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	cfg.DBPath = getenvDefault("ATTENDANCE_DB_PATH", cfg.DBPath)

	cfg.Relay.Addr = getenvDefault("ATTENDANCE_RELAY_ADDR", cfg.Relay.Addr)
	cfg.Relay.RegistrationTimeoutSeconds = getenvInt("ATTENDANCE_REGISTRATION_TIMEOUT_SECONDS", cfg.Relay.RegistrationTimeoutSeconds)
	cfg.Relay.SendQueueSize = getenvInt("ATTENDANCE_SEND_QUEUE_SIZE", cfg.Relay.SendQueueSize)

	cfg.Host.RelayURL = getenvDefault("ATTENDANCE_RELAY_URL", cfg.Host.RelayURL)
	cfg.Host.ClientName = getenvDefault("ATTENDANCE_CLIENT_NAME", cfg.Host.ClientName)
	cfg.Host.TargetName = getenvDefault("ATTENDANCE_TARGET_NAME", cfg.Host.TargetName)
	cfg.Host.HTTPAddr = getenvDefault("ATTENDANCE_HTTP_ADDR", cfg.Host.HTTPAddr)
	cfg.Host.GRPCAddr = getenvDefault("ATTENDANCE_GRPC_ADDR", cfg.Host.GRPCAddr)
	cfg.Host.PrivilegedRole = getenvDefault("ATTENDANCE_PRIVILEGED_ROLE", cfg.Host.PrivilegedRole)
	cfg.Host.DefaultResetTime = getenvDefault("ATTENDANCE_DEFAULT_RESET_TIME", cfg.Host.DefaultResetTime)
	cfg.Host.TimeZone = getenvDefault("ATTENDANCE_TIME_ZONE", cfg.Host.TimeZone)
	cfg.Host.ReconnectIntervalSeconds = getenvInt("ATTENDANCE_RECONNECT_INTERVAL_SECONDS", cfg.Host.ReconnectIntervalSeconds)

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
