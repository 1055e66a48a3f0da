package analytics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/trigger"
	"gopkg.in/yaml.v3"
)

// Config is the declarative part of a client configuration. It is usually
// loaded from YAML and applied with WithConfig.
type Config struct {
	TestMode              bool              `yaml:"test_mode"`
	DisableAppOpenEvent   bool              `yaml:"disable_app_open_event"`
	OptOutTrackingDefault bool              `yaml:"opt_out_tracking_default"`
	AppVersion            string            `yaml:"app_version"`
	AppVersionCode        string            `yaml:"app_version_code"`
	LibVersion            string            `yaml:"lib_version"`
	DeviceInfo            map[string]string `yaml:"device_info"`
	TriggerEngine         string            `yaml:"trigger_engine"`
	ClaimTimeout          time.Duration     `yaml:"claim_timeout"`
}

// DefaultLibVersion is reported when Config.LibVersion is empty.
const DefaultLibVersion = "1.0.0"

// Validate reports configuration values the client cannot honor.
func (c Config) Validate() error {
	var errs []error
	if !trigger.ValidEngine(c.TriggerEngine) {
		errs = append(errs, fmt.Errorf("%w: unknown trigger_engine %q", ErrInvalidConfig, c.TriggerEngine))
	}
	if c.ClaimTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: claim_timeout must not be negative", ErrInvalidConfig))
	}
	for key := range c.DeviceInfo {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Errorf("%w: device_info has an empty key", ErrInvalidConfig))
			break
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("analytics: open config: %w", err)
	}
	defer f.Close()
	return decodeConfig(f)
}

// ParseConfig decodes and validates a YAML config document.
func ParseConfig(raw []byte) (Config, error) {
	return decodeConfig(bytes.NewReader(raw))
}

func decodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("analytics: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) libVersion() string {
	if c.LibVersion == "" {
		return DefaultLibVersion
	}
	return c.LibVersion
}

// deviceProperties renders the device description merged into profile $set
// updates. Keys are sorted so payloads are stable.
func (c Config) deviceProperties() props.Properties {
	var out props.Properties
	out.Set("$lib_version", props.String(c.libVersion()))
	if c.AppVersion != "" {
		out.Set("$app_version", props.String(c.AppVersion))
	}
	if c.AppVersionCode != "" {
		out.Set("$app_version_code", props.String(c.AppVersionCode))
	}
	keys := make([]string, 0, len(c.DeviceInfo))
	for key := range c.DeviceInfo {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out.Set(key, props.String(c.DeviceInfo[key]))
	}
	return out
}
