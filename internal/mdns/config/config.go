// Package config assembles the bridge's runtime configuration from
// environment variables into the pre-parsed object the rest of the
// daemon consumes: the interface list is the boundary the on-disk
// INI-style configuration format (not implemented here) would parse
// down to.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
)

// InterfaceConfig describes one bridged interface as configured by the
// operator: its symbolic name, per-family enablement, and optional
// inbound/outbound filter fragments.
type InterfaceConfig struct {
	Name string `koanf:"name" validate:"required"`

	EnableV4 bool `koanf:"enable_v4"`
	EnableV6 bool `koanf:"enable_v6"`

	// InboundMode/InboundNames and OutboundMode/OutboundNames are empty
	// unless this interface carries its own filter. AppConfig's global
	// filter, if any, applies to inbound traffic on this interface either
	// way; an inbound record must pass both.
	InboundMode   string   `koanf:"inbound_mode" validate:"omitempty,oneof=allow deny"`
	InboundNames  []string `koanf:"inbound_names"`
	OutboundMode  string   `koanf:"outbound_mode" validate:"omitempty,oneof=allow deny"`
	OutboundNames []string `koanf:"outbound_names"`
}

// AppConfig holds configuration values parsed from environment
// variables for the mDNS bridge daemon.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// WarnUnsupportedTypes logs a line for every query or RR dropped
	// because its type is not supported. Such entries are dropped whether
	// or not this is set.
	WarnUnsupportedTypes bool `koanf:"warn_unsupported_types"`

	// HeartbeatSeconds is the interval between uptime log lines; 0 disables
	// the heartbeat entirely.
	HeartbeatSeconds uint `koanf:"heartbeat_seconds"`

	// PIDFile, when non-empty, is the path this process writes its PID to
	// on startup.
	PIDFile string `koanf:"pid_file"`

	// FilteringEnabled gates the entire filtering subsystem. When false,
	// no interface may carry a global or per-interface filter of any
	// kind, and the bridge forwards every packet unexamined.
	FilteringEnabled bool `koanf:"filtering_enabled"`

	// GlobalMode/GlobalNames define an optional inbound filter applied on
	// every interface, in addition to any inbound filter the interface
	// carries itself.
	GlobalMode  string   `koanf:"global_mode" validate:"omitempty,oneof=allow deny"`
	GlobalNames []string `koanf:"global_names"`

	Interfaces []InterfaceConfig `koanf:"interfaces" validate:"required,min=1,dive"`
}

// DefaultAppConfig defines the default application configuration
// settings for the mDNS bridge.
var DefaultAppConfig = AppConfig{
	Env:                  "prod",
	LogLevel:             "info",
	WarnUnsupportedTypes: false,
	HeartbeatSeconds:     300,
	PIDFile:              "/var/run/mdns-bridged.pid",
	FilteringEnabled:     true,
}

// envLoader loads environment variables with the prefix "MDNSBRIDGE_".
// It transforms the keys to lowercase and removes the prefix, and can
// be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "MDNSBRIDGE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "MDNSBRIDGE_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, ",") {
				parts := strings.Split(value, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided
// Koanf instance using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// Load parses environment variables and returns a validated AppConfig.
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

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := checkInterfaceRules(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkInterfaceRules enforces the cross-field rules validator tags
// cannot express: no duplicate interface names, a filter's mode and
// names must be supplied together or not at all, and no filter of any
// kind may be configured while filtering is disabled.
func checkInterfaceRules(cfg *AppConfig) error {
	if (cfg.GlobalMode == "") != (len(cfg.GlobalNames) == 0) {
		return fmt.Errorf("config: global_mode and global_names must both be set or both be empty")
	}
	if !cfg.FilteringEnabled && cfg.GlobalMode != "" {
		return fmt.Errorf("config: global_mode set but filtering_enabled is false")
	}
	seen := make(map[string]bool, len(cfg.Interfaces))
	for _, ifc := range cfg.Interfaces {
		if seen[ifc.Name] {
			return fmt.Errorf("config: duplicate interface name %q", ifc.Name)
		}
		seen[ifc.Name] = true
		if (ifc.InboundMode == "") != (len(ifc.InboundNames) == 0) {
			return fmt.Errorf("config: interface %q: inbound_mode and inbound_names must both be set or both be empty", ifc.Name)
		}
		if (ifc.OutboundMode == "") != (len(ifc.OutboundNames) == 0) {
			return fmt.Errorf("config: interface %q: outbound_mode and outbound_names must both be set or both be empty", ifc.Name)
		}
		if !cfg.FilteringEnabled && (ifc.InboundMode != "" || ifc.OutboundMode != "") {
			return fmt.Errorf("config: interface %q: filter configured but filtering_enabled is false", ifc.Name)
		}
		if !ifc.EnableV4 && !ifc.EnableV6 {
			return fmt.Errorf("config: interface %q: at least one address family must be enabled", ifc.Name)
		}
	}
	return nil
}

// GlobalFilter builds the global filter.List from cfg, or nil if none
// was configured.
func (cfg *AppConfig) GlobalFilter() (*filter.List, error) {
	return buildFilter(cfg.GlobalMode, cfg.GlobalNames)
}

// InboundFilter builds ifc's inbound filter.List, or nil if it carries
// none of its own.
func (ifc *InterfaceConfig) InboundFilter() (*filter.List, error) {
	return buildFilter(ifc.InboundMode, ifc.InboundNames)
}

// OutboundFilter builds ifc's outbound filter.List, or nil if it
// carries none of its own.
func (ifc *InterfaceConfig) OutboundFilter() (*filter.List, error) {
	return buildFilter(ifc.OutboundMode, ifc.OutboundNames)
}

func buildFilter(mode string, names []string) (*filter.List, error) {
	if mode == "" {
		return nil, nil
	}
	m := filter.Deny
	if mode == "allow" {
		m = filter.Allow
	}
	return filter.New(m, names)
}
