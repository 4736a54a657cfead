// Package config loads the dns.* configuration keys enumerated in spec §6.
// The Config struct follows the teacher's plain-struct-with-defaults
// convention; Load adds YAML parsing, using gopkg.in/yaml.v3 -- already
// present transitively in the teacher's dependency graph -- to read it
// from a file at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ZoneConfig holds the opaque, zone-level settings spec §6 describes for
// each entry of dns.zone. The core does not interpret any of these: every
// zone's Authority is built from the shared dns.soa_* and dns.nameservers
// keys, and only the zone's name is taken from dns.zone.
type ZoneConfig struct {
	Settings map[string]interface{} `yaml:",inline"`
}

// DNSConfig holds every key from spec §6 under the "dns." namespace.
type DNSConfig struct {
	Inets          []string              `yaml:"inets"`
	TCPTimeout     time.Duration         `yaml:"tcp_timeout"`
	Nameservers    []string              `yaml:"nameservers"`
	SOAMaster      string                `yaml:"soa_master"`
	SOAResponsible string                `yaml:"soa_responsible"`
	SOARefresh     uint32                `yaml:"soa_refresh"`
	SOARetry       uint32                `yaml:"soa_retry"`
	SOAExpire      uint32                `yaml:"soa_expire"`
	SOATTL         uint32                `yaml:"soa_ttl"`
	RecordTTL      uint32                `yaml:"record_ttl"`
	Zone           map[string]ZoneConfig `yaml:"zone"`
}

// Config is the root configuration document.
type Config struct {
	DNS DNSConfig `yaml:"dns"`
}

// NewDefault returns a Config with sane defaults, matching the teacher's
// NewConfig() convention of returning a fully populated struct rather than
// relying on zero values.
func NewDefault() *Config {
	return &Config{
		DNS: DNSConfig{
			Inets:      []string{"0.0.0.0:53"},
			TCPTimeout: 10 * time.Second,
			SOARefresh: 7200,
			SOARetry:   3600,
			SOAExpire:  1209600,
			SOATTL:     3600,
			RecordTTL:  3600,
			Zone:       map[string]ZoneConfig{},
		},
	}
}

// Load reads and parses a YAML configuration file. Any failure here is
// the misconfiguration-at-startup case of spec §7: fatal, the process
// should abort rather than serve with a guessed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(cfg.DNS.Zone) == 0 {
		return nil, fmt.Errorf("config: no zones configured under dns.zone")
	}
	if cfg.DNS.SOAMaster == "" || cfg.DNS.SOAResponsible == "" {
		return nil, fmt.Errorf("config: dns.soa_master and dns.soa_responsible are required")
	}

	return cfg, nil
}
