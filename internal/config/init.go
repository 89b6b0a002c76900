package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Notifications.NATS.URL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	header := []byte("# venuestatus configuration\n# transport: log | nats\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
