// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/roster"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

// Config captures every knob of the harvest and filter stages.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Organizer  OrganizerConfig  `mapstructure:"organizer"`
	EntryList  EntryListConfig  `mapstructure:"entrylist"`
	Meets      []MeetConfig     `mapstructure:"meets"`
	Roster     RosterConfig     `mapstructure:"roster"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// CacheConfig locates the document and identity cache.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// DatasetConfig locates the entries file and its optional mirrors.
type DatasetConfig struct {
	Path             string         `mapstructure:"path"`
	CalendarPath     string         `mapstructure:"calendar_path"`
	CalendarTimezone string         `mapstructure:"calendar_timezone"`
	GCS              GCSConfig      `mapstructure:"gcs"`
	Postgres         PostgresConfig `mapstructure:"postgres"`
}

// GCSConfig enables the Cloud Storage mirror when Bucket is set.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Object string `mapstructure:"object"`
}

// PostgresConfig enables the SQL mirror when DSN is set.
type PostgresConfig struct {
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// FetchConfig configures document retrieval.
type FetchConfig struct {
	UserAgent             string  `mapstructure:"user_agent"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds"`
	RespectRobots         bool    `mapstructure:"respect_robots"`
	RPS                   float64 `mapstructure:"rps"`
	Burst                 int     `mapstructure:"burst"`
	Headless              bool    `mapstructure:"headless"`
	PromoteHeadless       bool    `mapstructure:"promote_headless"`
	PromotionThreshold    int     `mapstructure:"promotion_threshold"`
	NavigationTimeoutSecs int     `mapstructure:"navigation_timeout_seconds"`
	WaitSelector          string  `mapstructure:"wait_selector"`
}

// RegistryConfig points at the athlete registry search API.
type RegistryConfig struct {
	Endpoint            string              `mapstructure:"endpoint"`
	APIKey              string              `mapstructure:"api_key"`
	TimeoutSeconds      int                 `mapstructure:"timeout_seconds"`
	RPS                 float64             `mapstructure:"rps"`
	CollegeMinBirthYear int                 `mapstructure:"college_min_birth_year"`
	Aliases             map[string][]string `mapstructure:"aliases"`
}

// AggregatorConfig identifies the results aggregator site.
type AggregatorConfig struct {
	Host string `mapstructure:"host"`
}

// OrganizerConfig selects qualifying schedule rows on organizer sites.
type OrganizerConfig struct {
	Category string `mapstructure:"category"`
}

// EntryListConfig describes the page layout of entry-list PDFs.
type EntryListConfig struct {
	SkipEvents      []string `mapstructure:"skip_events"`
	HeaderFragments int      `mapstructure:"header_fragments"`
	FooterFragments int      `mapstructure:"footer_fragments"`
}

// MeetConfig lists the sources harvested for one meet, in order.
type MeetConfig struct {
	Key     string   `mapstructure:"key"`
	Indoor  bool     `mapstructure:"indoor"`
	Date    string   `mapstructure:"date"`
	Sources []string `mapstructure:"sources"`
}

// RosterConfig drives the filter stage.
type RosterConfig struct {
	Meet        string           `mapstructure:"meet"`
	MaxEntrants int              `mapstructure:"max_entrants"`
	Listings    []roster.Listing `mapstructure:"listings"`
}

// NotifyConfig enables dataset notifications when Topic is set.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig serves Prometheus metrics during a run when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from an optional file plus ENTRIES_* environment
// variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENTRIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("cache.path", "data/cache.json")
	v.SetDefault("dataset.path", "data/entries.json")
	v.SetDefault("dataset.calendar_path", "data/entries.ics")
	v.SetDefault("dataset.calendar_timezone", "UTC")
	v.SetDefault("dataset.gcs.object", "entries.json")
	v.SetDefault("dataset.postgres.table", "entrants")
	v.SetDefault("dataset.postgres.max_conns", 4)
	v.SetDefault("fetch.user_agent", "diamond-entries/0.1")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.rps", 1.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.headless", false)
	v.SetDefault("fetch.navigation_timeout_seconds", 45)
	v.SetDefault("fetch.promote_headless", false)
	v.SetDefault("fetch.promotion_threshold", 2048)
	v.SetDefault("registry.timeout_seconds", 20)
	v.SetDefault("registry.rps", 4.0)
	v.SetDefault("organizer.category", "DL")
	v.SetDefault("entrylist.header_fragments", 9)
	v.SetDefault("entrylist.footer_fragments", 4)
	v.SetDefault("roster.max_entrants", roster.DefaultMaxEntrants)
}

// bindEnv registers keys without defaults so AutomaticEnv can populate them.
func bindEnv(v *viper.Viper) error {
	for _, key := range []string{
		"registry.endpoint",
		"registry.api_key",
		"registry.college_min_birth_year",
		"aggregator.host",
		"dataset.gcs.bucket",
		"dataset.postgres.dsn",
		"notify.project_id",
		"notify.topic",
		"metrics.listen_addr",
		"roster.meet",
	} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and closed enumerations.
func (c Config) Validate() error {
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if _, err := time.LoadLocation(c.Dataset.CalendarTimezone); err != nil {
		return fmt.Errorf("dataset.calendar_timezone: %w", err)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.RPS < 0 || c.Registry.RPS < 0 {
		return fmt.Errorf("rps must be >= 0")
	}
	if c.EntryList.HeaderFragments < 0 || c.EntryList.FooterFragments < 0 {
		return fmt.Errorf("entrylist fragment counts must be >= 0")
	}

	seen := make(map[string]bool, len(c.Meets))
	needsRegistry, needsAggregator := false, false
	for i, m := range c.Meets {
		if !entries.KnownMeet(m.Key) {
			return fmt.Errorf("meets[%d]: unknown meet %q", i, m.Key)
		}
		if seen[m.Key] {
			return fmt.Errorf("meets[%d]: duplicate meet %q", i, m.Key)
		}
		seen[m.Key] = true
		if len(m.Sources) == 0 {
			return fmt.Errorf("meets[%d] (%s): at least one source is required", i, m.Key)
		}
		for _, src := range m.Sources {
			switch source.Classify(src, c.Aggregator.Host) {
			case source.KindAggregator:
				needsAggregator, needsRegistry = true, true
			case source.KindEntryList:
				needsRegistry = true
			case source.KindOrganizer:
				if _, err := url.ParseRequestURI(src); err != nil {
					return fmt.Errorf("meets[%d] (%s): invalid source %q: %w", i, m.Key, src, err)
				}
			}
		}
	}
	if needsRegistry && c.Registry.Endpoint == "" {
		return fmt.Errorf("registry.endpoint is required for aggregator and entry-list sources")
	}
	if needsAggregator && c.Registry.CollegeMinBirthYear <= 0 {
		return fmt.Errorf("registry.college_min_birth_year is required for aggregator sources")
	}

	if c.Roster.Meet != "" && !entries.KnownMeet(c.Roster.Meet) {
		return fmt.Errorf("roster.meet: unknown meet %q", c.Roster.Meet)
	}
	if c.Roster.MaxEntrants <= 0 {
		return fmt.Errorf("roster.max_entrants must be > 0")
	}
	for i, l := range c.Roster.Listings {
		if l.Gender != entries.GenderMen && l.Gender != entries.GenderWomen {
			return fmt.Errorf("roster.listings[%d]: gender must be M or W", i)
		}
		if l.URL == "" {
			return fmt.Errorf("roster.listings[%d]: url is required", i)
		}
	}
	if c.Notify.Topic != "" && c.Notify.ProjectID == "" {
		return fmt.Errorf("notify.project_id is required when notify.topic is set")
	}
	return nil
}

// FetchTimeout returns the per-request fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RegistryTimeout returns the registry HTTP client timeout.
func (c Config) RegistryTimeout() time.Duration {
	return time.Duration(c.Registry.TimeoutSeconds) * time.Second
}

// Location returns the zone calendar times are interpreted in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dataset.CalendarTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Meet returns the configuration of key, if present.
func (c Config) Meet(key string) (MeetConfig, bool) {
	for _, m := range c.Meets {
		if m.Key == key {
			return m, true
		}
	}
	return MeetConfig{}, false
}
