package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# Offline cache configuration.
#
# origin.url is the web application served offline. Point manifest.path at
# the JSON Resource Table produced by the application build, or deploy one
# later with "offlinecachectl deploy".
#
# Every key can be overridden with an OFFLINECACHE_ environment variable,
# e.g. OFFLINECACHE_LOGGING_LEVEL=DEBUG.

`

// InitConfig writes a sample configuration file to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	return writeConfigFile(path, append([]byte(configHeader), data...))
}
