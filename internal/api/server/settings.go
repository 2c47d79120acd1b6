package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by cast5cms.
const EnvPrefix = "CAST5CMS_"

// settingsYAML is the YAML representation of Settings. Durations use
// time.ParseDuration syntax ("30s", "2m").
type settingsYAML struct {
	Host            string `yaml:"host,omitempty"`
	Port            int    `yaml:"port,omitempty"`
	TLSCert         string `yaml:"tls_cert,omitempty"`
	TLSKey          string `yaml:"tls_key,omitempty"`
	AuditLog        string `yaml:"audit_log,omitempty"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes,omitempty"`
	ReadTimeout     string `yaml:"read_timeout,omitempty"`
	WriteTimeout    string `yaml:"write_timeout,omitempty"`
	IdleTimeout     string `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// Settings is the resolved configuration of "cast5cms serve": the HTTP
// server plus the audit log it writes to.
type Settings struct {
	HTTP     *Config
	AuditLog string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() *Settings {
	return &Settings{HTTP: DefaultConfig()}
}

// LoadFile overlays the YAML file at path onto s. Keys missing from
// the file keep their current value.
func (s *Settings) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read server config: %w", err)
	}
	if err := s.ApplyYAML(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ApplyYAML overlays YAML bytes onto s.
func (s *Settings) ApplyYAML(data []byte) error {
	var y settingsYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setString(&s.HTTP.Host, y.Host)
	setString(&s.HTTP.TLSCert, y.TLSCert)
	setString(&s.HTTP.TLSKey, y.TLSKey)
	setString(&s.AuditLog, y.AuditLog)
	if y.Port != 0 {
		s.HTTP.Port = y.Port
	}
	if y.MaxBodyBytes != 0 {
		s.HTTP.MaxBodyBytes = y.MaxBodyBytes
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"read_timeout", y.ReadTimeout, &s.HTTP.ReadTimeout},
		{"write_timeout", y.WriteTimeout, &s.HTTP.WriteTimeout},
		{"idle_timeout", y.IdleTimeout, &s.HTTP.IdleTimeout},
		{"shutdown_timeout", y.ShutdownTimeout, &s.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

// ApplyEnv overlays CAST5CMS_* variables onto s. getenv is usually
// os.Getenv.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	setString(&s.HTTP.Host, getenv(EnvPrefix+"HOST"))
	setString(&s.HTTP.TLSCert, getenv(EnvPrefix+"TLS_CERT"))
	setString(&s.HTTP.TLSKey, getenv(EnvPrefix+"TLS_KEY"))
	setString(&s.AuditLog, getenv(EnvPrefix+"AUDIT_LOG"))

	if v := getenv(EnvPrefix + "PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		s.HTTP.Port = p
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
