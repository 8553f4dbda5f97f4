package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PlaceholderSourceURL is the value shipped in templates before an operator
// points the hider at a real list. It counts as unset.
const PlaceholderSourceURL = "PUT_YOUR_GITHUB_RAW_FILE_URL_HERE"

// ErrSourceUnset is returned by Load when no usable blocklist URL is configured.
// The engine must not start in that case.
var ErrSourceUnset = errors.New("blocklist source url is unset")

// expectedSourceURL is the raw-file shape lists are normally published under.
// A mismatch is reported as a warning only.
var expectedSourceURL = regexp.MustCompile(`^https://raw\.githubusercontent\.com/[^/]+/[^/]+/[^/]+/.+\.txt$`)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log LogConfig `koanf:"log"`

	Blocklist BlocklistConfig `koanf:"blocklist"`

	// Keywords are the wildcard substrings checked against author ids and titles.
	// An empty list disables wildcard matching.
	Keywords []string `koanf:"keywords" validate:"dive,required"`

	Cache CacheConfig `koanf:"cache"`

	Resolver ResolverConfig `koanf:"resolver"`

	Proxy ProxyConfig `koanf:"proxy"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type BlocklistConfig struct {
	// URL is the plain-text list fetched once at boot.
	URL string `koanf:"url" validate:"required,http_url"`

	// ProfileHost is the site whose profile URLs are accepted as list lines.
	ProfileHost string `koanf:"profile_host" validate:"required,hostname"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// BloomFPRate is the target false-positive rate of the membership pre-filter.
	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`
}

type CacheConfig struct {
	// Size of the decision memo. Zero disables it.
	Size int `koanf:"size" validate:"gte=0"`
}

type ResolverConfig struct {
	// HopLimit bounds the upward walk of the grid-cell heuristic.
	HopLimit int `koanf:"hop_limit" validate:"gte=1,lte=32"`
}

type ProxyConfig struct {
	// Port the filtering proxy listens on.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// Upstream is the site the proxy forwards to.
	Upstream string `koanf:"upstream" validate:"required,http_url"`
}

// DefaultKeywords is the wildcard list the hider ships with.
var DefaultKeywords = []string{
	"photography", "stock", "3d", "model", "nature", "ero",
	"nude", "onlyfans", "of", "promo", "porn", "blender",
	"studio", "graphy", "imagery", "subscribe", "photo",
	"commission", "adopt", "trade", "ych", "art", "arts",
}

// DEFAULT_APP_CONFIG defines the defaults applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	Blocklist: BlocklistConfig{
		URL:         "https://raw.githubusercontent.com/nekohacker591/deviantnotartblacklist/main/blacklist.txt",
		ProfileHost: "deviantart.com",
		Timeout:     15 * time.Second,
		BloomFPRate: 0.01,
	},
	Keywords: DefaultKeywords,
	Cache:    CacheConfig{Size: 1024},
	Resolver: ResolverConfig{HopLimit: 8},
	Proxy: ProxyConfig{
		Port:     8080,
		Upstream: "https://www.deviantart.com",
	},
}

// validHTTPURL accepts absolute http and https URLs with a host.
func validHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// envKey maps HIDER_BLOCKLIST_PROFILE_HOST to blocklist.profile_host: the
// first underscore after the prefix separates the section from the field.
func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, "HIDER_"))
	return strings.Replace(key, "_", ".", 1)
}

// listKeys are the slice-valued keys; an empty value clears them.
var listKeys = map[string]bool{"keywords": true}

// envLoader loads environment variables with the prefix "HIDER_".
// Values containing spaces or commas become lists. It is a variable so
// tests can replace it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "HIDER_",
		TransformFunc: func(key, value string) (string, any) {
			key = envKey(key)
			value = strings.TrimSpace(value)

			if value == "" {
				if listKeys[key] {
					return key, []string{}
				}
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "http_url" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("http_url", validHTTPURL)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically. An unset or
// placeholder blocklist URL yields ErrSourceUnset.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.Blocklist.URL = strings.TrimSpace(cfg.Blocklist.URL)
	if cfg.Blocklist.URL == "" || cfg.Blocklist.URL == PlaceholderSourceURL {
		return nil, fmt.Errorf("update HIDER_BLOCKLIST_URL with your blocklist location: %w", ErrSourceUnset)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// Warnings reports non-fatal configuration problems.
func (c *AppConfig) Warnings() []string {
	var out []string
	if !expectedSourceURL.MatchString(c.Blocklist.URL) {
		out = append(out, fmt.Sprintf("blocklist url might be incorrect: %s", c.Blocklist.URL))
	}
	if len(c.Keywords) == 0 {
		out = append(out, "no wildcard keywords configured")
	}
	return out
}
