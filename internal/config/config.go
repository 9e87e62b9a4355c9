// Package config defines the relay's typed configuration record and its
// strict YAML loading, following the same KnownFields/setDefaults shape
// as the teacher's configuration package.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the complete relay configuration.
type Config struct {
	BindAddr string `yaml:"bind_addr"`

	TLS TLSConfig `yaml:"tls_config"`

	// ClusterRootURL, if set, is the root origin this node dials to
	// join a cluster. Leaving it empty runs a standalone relay with no
	// cluster participation.
	ClusterRootURL string `yaml:"cluster_root_url,omitempty"`

	// ClusterPrefix is the broadcast path prefix under which origin
	// names are announced and discovered.
	ClusterPrefix string `yaml:"cluster_prefix"`

	// ClusterNode, if set, is this node's own origin name, announced
	// under ClusterPrefix+ClusterNode so peers can reach it directly.
	// Leaving it empty makes this a read-only cluster participant.
	ClusterNode string `yaml:"cluster_node,omitempty"`

	// DevMode relaxes TLS requirements for local testing: a
	// self-signed certificate is generated instead of requiring
	// TLS.CertFile/KeyFile.
	DevMode bool `yaml:"dev_mode,omitempty"`
}

// TLSConfig names the certificate and key files the relay's WebTransport
// listener serves.
type TLSConfig struct {
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
}

// Load reads configuration from a YAML file, rejecting unknown fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.BindAddr == "" {
		c.BindAddr = ":4443"
	}
	if c.ClusterPrefix == "" {
		c.ClusterPrefix = "origin."
	}
}
