// This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
	"strings"
)

// Validate checks that all configuration values are within acceptable
// ranges. Returns an error describing the first validation failure
// found.
func (c *Config) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("bind_addr is required")
	}
	if !c.DevMode && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("tls_config.cert_file and key_file are required unless dev_mode is set")
	}
	if c.ClusterPrefix == "" {
		return fmt.Errorf("cluster_prefix must not be empty")
	}
	if !strings.HasSuffix(c.ClusterPrefix, ".") {
		return fmt.Errorf("cluster_prefix must end in '.', got %q", c.ClusterPrefix)
	}
	if c.ClusterNode != "" && c.ClusterRootURL == "" {
		return fmt.Errorf("cluster_node requires cluster_root_url")
	}
	return nil
}
