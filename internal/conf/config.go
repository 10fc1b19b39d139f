// Package conf handles application configuration: defaults, file and
// environment binding via Viper, and the shared Settings singleton.
package conf

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the full application configuration.
type Settings struct {
	Main       MainSettings       `mapstructure:"main"`
	HTTP       HTTPSettings       `mapstructure:"http"`
	Monitor    MonitorSettings    `mapstructure:"monitor"`
	Perception PerceptionSettings `mapstructure:"perception"`
	Datastore  DatastoreSettings  `mapstructure:"datastore"`
	MQTT       MQTTSettings       `mapstructure:"mqtt"`
	Push       PushSettings       `mapstructure:"push"`
	Sentry     SentrySettings     `mapstructure:"sentry"`
}

// MainSettings holds top-level application options.
type MainSettings struct {
	LogLevel string `mapstructure:"loglevel"`
}

// HTTPSettings configures the REST/WebSocket listener.
type HTTPSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MonitorSettings configures the polling worker and the alerting pipeline.
type MonitorSettings struct {
	Cameras []string `mapstructure:"cameras"`
	PollFPS float64  `mapstructure:"pollfps"`

	WindowDuration    Duration `mapstructure:"windowduration"`
	GeneralThreshold  int      `mapstructure:"generalthreshold"`
	ObjectThreshold   int      `mapstructure:"objectthreshold"`
	ActivityThreshold int      `mapstructure:"activitythreshold"`
	SummaryFloor      int      `mapstructure:"summaryfloor"`

	DangerousKeywords []string `mapstructure:"dangerouskeywords"`

	Fusion FusionSettings `mapstructure:"fusion"`

	// HistoryDepth is how many observation summaries are retained per
	// camera; VerifyDepth is how many of the most recent are handed to
	// the verification service.
	HistoryDepth int `mapstructure:"historydepth"`
	VerifyDepth  int `mapstructure:"verifydepth"`
}

// FusionSettings holds the confidence boost floors for baseline deviation.
type FusionSettings struct {
	BoostFloor  int `mapstructure:"boostfloor"`  // minimum heuristic confidence for any boost
	BoostMid    int `mapstructure:"boostmid"`    // boosted-to confidence for timid heuristics
	BoostHigher int `mapstructure:"boosthigher"` // heuristics at or above this get the strong boost
	BoostStrong int `mapstructure:"booststrong"` // boosted-to confidence for confident heuristics
}

// PerceptionSettings configures the external perception and verification services.
type PerceptionSettings struct {
	Endpoint          string   `mapstructure:"endpoint"`
	Timeout           Duration `mapstructure:"timeout"`
	VerifyEndpoint    string   `mapstructure:"verifyendpoint"`
	VerifyTimeout     Duration `mapstructure:"verifytimeout"`
	InterpretEndpoint string   `mapstructure:"interpretendpoint"`
}

// DatastoreSettings configures best-effort persistence.
type DatastoreSettings struct {
	Type string `mapstructure:"type"` // "sqlite" or "mysql"
	Path string `mapstructure:"path"` // sqlite file path
	DSN  string `mapstructure:"dsn"`  // mysql DSN
}

// MQTTSettings configures the optional alert publisher.
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"clientid"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PushSettings configures shoutrrr push delivery for critical alerts.
type PushSettings struct {
	Enabled bool     `mapstructure:"enabled"`
	URLs    []string `mapstructure:"urls"`
}

// SentrySettings configures optional error reporting.
type SentrySettings struct {
	DSN string `mapstructure:"dsn"`
}

var (
	settingsInstance *Settings
	settingsMu       sync.RWMutex
)

// GetSettings returns the shared settings instance, or nil before Load.
func GetSettings() *Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsInstance
}

// SetSettings replaces the shared settings instance. Intended for tests.
func SetSettings(s *Settings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settingsInstance = s
}

// DefaultDangerousKeywords is the built-in safety keyword list scanned
// against scene and activity text, independent of any task query.
func DefaultDangerousKeywords() []string {
	return []string{
		"knife", "gun", "weapon", "fire", "smoke", "blood",
		"fight", "fighting", "intruder", "breaking in", "broken glass",
		"collapsed", "fallen", "unconscious", "screaming",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main.loglevel", "info")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)

	v.SetDefault("monitor.cameras", []string{})
	v.SetDefault("monitor.pollfps", 0.5)
	v.SetDefault("monitor.windowduration", "120s")
	v.SetDefault("monitor.generalthreshold", 60)
	v.SetDefault("monitor.objectthreshold", 60)
	v.SetDefault("monitor.activitythreshold", 50)
	v.SetDefault("monitor.summaryfloor", 50)
	v.SetDefault("monitor.dangerouskeywords", DefaultDangerousKeywords())
	v.SetDefault("monitor.fusion.boostfloor", 20)
	v.SetDefault("monitor.fusion.boostmid", 60)
	v.SetDefault("monitor.fusion.boosthigher", 75)
	v.SetDefault("monitor.fusion.booststrong", 85)
	v.SetDefault("monitor.historydepth", 10)
	v.SetDefault("monitor.verifydepth", 5)

	v.SetDefault("perception.timeout", "15s")
	v.SetDefault("perception.verifytimeout", "20s")

	v.SetDefault("datastore.type", "sqlite")
	v.SetDefault("datastore.path", "sentinel.db")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.topic", "sentinel/alerts")
	v.SetDefault("mqtt.clientid", "sentinel")

	v.SetDefault("push.enabled", false)
}

// Load reads configuration from the given file (optional), the environment
// (SENTINEL_ prefix), and built-in defaults, validates it, and installs the
// result as the shared settings instance.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	SetSettings(&s)
	return &s, nil
}

// Validate checks settings for values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.Monitor.PollFPS <= 0 {
		return fmt.Errorf("monitor.pollfps must be positive, got %v", s.Monitor.PollFPS)
	}
	if s.Monitor.WindowDuration.Std() <= 0 {
		return fmt.Errorf("monitor.windowduration must be positive, got %v", s.Monitor.WindowDuration.Std())
	}
	for name, v := range map[string]int{
		"monitor.generalthreshold":  s.Monitor.GeneralThreshold,
		"monitor.objectthreshold":   s.Monitor.ObjectThreshold,
		"monitor.activitythreshold": s.Monitor.ActivityThreshold,
		"monitor.summaryfloor":      s.Monitor.SummaryFloor,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be in 0-100, got %d", name, v)
		}
	}
	switch s.Datastore.Type {
	case "sqlite", "mysql", "none":
	default:
		return fmt.Errorf("datastore.type must be sqlite, mysql or none, got %q", s.Datastore.Type)
	}
	if s.Datastore.Type == "mysql" && s.Datastore.DSN == "" {
		return fmt.Errorf("datastore.dsn is required when datastore.type is mysql")
	}
	return nil
}

// Cadence returns the inter-tick sleep derived from the polling FPS.
func (s *MonitorSettings) Cadence() time.Duration {
	if s.PollFPS <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / s.PollFPS)
}
