// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// envPrefix marks environment variables that address any config key, with
// "__" separating the key path.
const envPrefix = "MEETING_PLATFORM_"

// Config is the configuration of the meeting platform.
type Config struct {
	NATS            NATSConfig                 `koanf:"nats"`
	HTTP            HTTPConfig                 `koanf:"http"`
	OperatingWindow OperatingWindowConfig      `koanf:"operating_window"`
	SMTP            SMTPConfig                 `koanf:"smtp"`
	Notifications   NotificationsConfig        `koanf:"notifications"`
	Recordings      RecordingsConfig           `koanf:"recordings"`
	Storage         StorageConfig              `koanf:"storage"`
	Communities     map[string]CommunityConfig `koanf:"communities"`
}

type NATSConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxReconnect  int           `koanf:"max_reconnect"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

type HTTPConfig struct {
	Bind string `koanf:"bind"`
	Port string `koanf:"port"`
}

type OperatingWindowConfig struct {
	Timezone       string        `koanf:"timezone"`
	Opening        string        `koanf:"opening"`
	Closing        string        `koanf:"closing"`
	Quantum        time.Duration `koanf:"quantum"`
	MaxAdvanceDays int           `koanf:"max_advance_days"`
	LeadTime       time.Duration `koanf:"lead_time"`
}

// SMTPConfig enables email notifications when Host is set.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// NotificationsConfig selects the notification queue: "jetstream" or "memory".
type NotificationsConfig struct {
	Queue    string `koanf:"queue"`
	Capacity int    `koanf:"capacity"`
}

type RecordingsConfig struct {
	Interval           time.Duration `koanf:"interval"`
	TempDir            string        `koanf:"temp_dir"`
	DownloadRate       int           `koanf:"download_rate"`
	CoverBackgroundDir string        `koanf:"cover_background_dir"`
	Rasterizer         string        `koanf:"rasterizer"`
	InspectTimeout     time.Duration `koanf:"inspect_timeout"`
}

// StorageConfig is the S3 compatible object storage shared by every community.
type StorageConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PathStyle bool   `koanf:"path_style"`
}

// CommunityConfig holds everything bound to one community.
type CommunityConfig struct {
	EtherpadPrefix string          `koanf:"etherpad_prefix"`
	Portal         PortalConfig    `koanf:"portal"`
	Zoom           *ZoomConfig     `koanf:"zoom"`
	Tencent        *TencentConfig  `koanf:"tencent"`
	Welink         *WelinkConfig   `koanf:"welink"`
	Recording      RecordingTarget `koanf:"recording"`
}

type PortalConfig struct {
	EN string `koanf:"en"`
	ZH string `koanf:"zh"`
}

// ZoomConfig is one server-to-server OAuth app and its host pool.
type ZoomConfig struct {
	AccountID    string   `koanf:"account_id"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Hosts        []string `koanf:"hosts"`
}

type TencentConfig struct {
	Hosts map[string]TencentHost `koanf:"hosts"`
}

type TencentHost struct {
	AppID     string `koanf:"app_id"`
	SDKID     string `koanf:"sdk_id"`
	SecretID  string `koanf:"secret_id"`
	SecretKey string `koanf:"secret_key"`
	HostKey   string `koanf:"host_key"`
}

type WelinkConfig struct {
	Hosts map[string]WelinkHost `koanf:"hosts"`
}

type WelinkHost struct {
	Account  string `koanf:"account"`
	Password string `koanf:"password"`
}

// RecordingTarget enables the recording pipeline for a community when Bucket is set.
type RecordingTarget struct {
	Bucket string       `koanf:"bucket"`
	Replay ReplayConfig `koanf:"replay"`
}

type ReplayConfig struct {
	APIURL    string `koanf:"api_url"`
	Token     string `koanf:"token"`
	URLPrefix string `koanf:"url_prefix"`
	Category  string `koanf:"category"`
}

// Load reads path, when given, then applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	if err := applyEnvOverrides(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "nats.url", "nats://localhost:4222")
	setDefault(k, "nats.timeout", 10*time.Second)
	setDefault(k, "nats.max_reconnect", 3)
	setDefault(k, "nats.reconnect_wait", 2*time.Second)

	setDefault(k, "http.bind", "*")
	setDefault(k, "http.port", "8080")

	setDefault(k, "operating_window.timezone", constants.DefaultTimezone)
	setDefault(k, "operating_window.opening", constants.DefaultOpeningTime)
	setDefault(k, "operating_window.closing", constants.DefaultClosingTime)
	setDefault(k, "operating_window.quantum", constants.DefaultQuantum)
	setDefault(k, "operating_window.max_advance_days", constants.DefaultMaxAdvanceDays)
	setDefault(k, "operating_window.lead_time", constants.DefaultLeadTime)

	setDefault(k, "smtp.port", 25)

	setDefault(k, "notifications.queue", queueJetStream)
	setDefault(k, "notifications.capacity", 256)

	setDefault(k, "recordings.interval", time.Hour)
	setDefault(k, "recordings.inspect_timeout", time.Minute)
}

// applyEnvOverrides maps the secrets and deployment values that are usually
// injected by the environment.
func applyEnvOverrides(k *koanf.Koanf) error {
	overrides := map[string]string{
		"NATS_URL":            "nats.url",
		"PORT":                "http.port",
		"SMTP_HOST":           "smtp.host",
		"SMTP_FROM":           "smtp.from",
		"SMTP_USERNAME":       "smtp.username",
		"SMTP_PASSWORD":       "smtp.password",
		"STORAGE_ENDPOINT":    "storage.endpoint",
		"STORAGE_REGION":      "storage.region",
		"STORAGE_ACCESS_KEY":  "storage.access_key",
		"STORAGE_SECRET_KEY":  "storage.secret_key",
		"NOTIFICATION_QUEUE":  "notifications.queue",
		"RECORDINGS_TEMP_DIR": "recordings.temp_dir",
	}
	for env, key := range overrides {
		if v := os.Getenv(env); v != "" {
			if err := k.Set(key, v); err != nil {
				return fmt.Errorf("failed to apply %s: %w", env, err)
			}
		}
	}

	// MEETING_PLATFORM_COMMUNITIES__OPENEULER__ZOOM__CLIENT_SECRET sets
	// communities.openeuler.zoom.client_secret.
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		path, ok := strings.CutPrefix(name, envPrefix)
		if !ok || path == "" || value == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(path), "__", ".")
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		if err := k.Set("smtp.port", port); err != nil {
			return err
		}
	}
	if v := os.Getenv("LEAD_TIME"); v != "" {
		leadTime, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LEAD_TIME %q: %w", v, err)
		}
		if err := k.Set("operating_window.lead_time", leadTime); err != nil {
			return err
		}
	}
	return nil
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		_ = k.Set(key, value)
	}
}

// location resolves the operating timezone.
func (c OperatingWindowConfig) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid operating timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// hasRecordings reports whether any community archives its recordings.
func (c *Config) hasRecordings() bool {
	for _, community := range c.Communities {
		if strings.TrimSpace(community.Recording.Bucket) != "" {
			return true
		}
	}
	return false
}
