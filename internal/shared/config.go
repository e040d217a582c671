package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SHELTERS"

type Config struct {
	AppEnv      string
	LogLevel    string
	MetricsAddr string
	BaseURL     string
	Timeout     time.Duration
	RPS         int
	Workers     int

	CacheLocation string
	NoCache       bool
	RefreshCache  bool

	Start       string
	Nights      int
	Regions     []string
	Filter      string
	MaxPlaces   int
	Out         string
	ListRegions bool
	Probe       bool
	ProbeID     int64
	Quiet       bool
}

// RegisterFlags declares every CLI flag. Flag defaults double as config defaults.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("start", "", "first night, YYYY-MM-DD")
	f.Int("nights", 1, "number of consecutive nights")
	f.StringSlice("region", nil, "region to search (repeatable, comma separated)")
	f.String("filter", "", "only places whose name contains this text")
	f.Bool("list-regions", false, "print known regions and exit")
	f.Bool("probe", false, "print the raw bookings payload for one place and exit")
	f.Int64("probe-id", 0, "place id to probe (default: first place with an id)")
	f.Int("max-places", 0, "check at most this many places (0 = all)")
	f.Bool("quiet", false, "only log warnings and errors")
	f.String("out", "available_shelters.csv", "CSV output path")
	f.String("cache-file", "ids_cache.json", "catalog cache: JSON file, .db sqlite file or redis:// URL")
	f.Bool("no-cache", false, "neither read nor write the catalog cache")
	f.Bool("refresh-cache", false, "refetch the catalog even when a cache exists")
	f.Int("workers", 1, "concurrent availability requests")
	f.Int("rps", 4, "max requests per second to the booking site")
	f.String("base-url", "https://book.naturstyrelsen.dk", "booking site base URL")
	f.Duration("timeout", 30*time.Second, "per-request timeout")
	f.String("metrics-addr", "", "serve /metrics and /v1/progress on this address while running")
	f.String("log-level", "info", "debug, info, warn or error")
	f.String("config", "", "optional config file (yaml, json, toml, ...)")
}

// Load resolves configuration from, lowest to highest precedence: flag
// defaults, the config file, SHELTERS_* environment variables (a .env file is
// loaded first when present) and explicitly set flags.
func Load(f *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("app-env", "APP_ENV")
	v.SetDefault("app-env", "dev")

	if err := v.BindPFlags(f); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := Config{
		AppEnv:        v.GetString("app-env"),
		LogLevel:      v.GetString("log-level"),
		MetricsAddr:   v.GetString("metrics-addr"),
		BaseURL:       strings.TrimRight(v.GetString("base-url"), "/"),
		Timeout:       v.GetDuration("timeout"),
		RPS:           v.GetInt("rps"),
		Workers:       v.GetInt("workers"),
		CacheLocation: v.GetString("cache-file"),
		NoCache:       v.GetBool("no-cache"),
		RefreshCache:  v.GetBool("refresh-cache"),
		Start:         strings.TrimSpace(v.GetString("start")),
		Nights:        v.GetInt("nights"),
		Regions:       splitList(v.GetStringSlice("region")),
		Filter:        v.GetString("filter"),
		MaxPlaces:     v.GetInt("max-places"),
		Out:           v.GetString("out"),
		ListRegions:   v.GetBool("list-regions"),
		Probe:         v.GetBool("probe"),
		ProbeID:       v.GetInt64("probe-id"),
		Quiet:         v.GetBool("quiet"),
	}
	if c.Quiet {
		c.LogLevel = "warn"
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c, nil
}

// splitList flattens "a,b" entries coming from env vars or config files.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
