package platforms

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type PlatformConfig struct {
	Name         string `yaml:"name" json:"name"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	Environment  string `yaml:"environment" json:"environment"` // sandbox or production
	Enabled      bool   `yaml:"enabled" json:"enabled"`
}

type RegistryConfig struct {
	Platforms []PlatformConfig `yaml:"platforms" json:"platforms"`
}

// Registry maps platform name to its adapter, built once at startup.
type Registry map[string]Adapter

func (r Registry) Get(name string) (Adapter, bool) {
	adapter, ok := r[name]
	return adapter, ok
}

func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

func LoadConfig(path string) (RegistryConfig, error) {
	if path == "" {
		return RegistryConfig{}, errors.New("platforms config path not set")
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return RegistryConfig{}, err
	}

	var cfg RegistryConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RegistryConfig{}, err
	}

	if len(cfg.Platforms) == 0 {
		return RegistryConfig{}, errors.New("no platforms configured")
	}

	return cfg, nil
}

// Build constructs adapters for every enabled platform in the config. An
// unknown platform name is a configuration fault and aborts startup.
func Build(cfg RegistryConfig, httpClient *http.Client) (Registry, error) {
	registry := make(Registry)
	for _, pc := range cfg.Platforms {
		if !pc.Enabled {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(pc.Name))
		switch name {
		case "doordash":
			registry[name] = NewDoorDash(pc.ClientID, pc.ClientSecret, pc.Environment, httpClient)
		default:
			return nil, fmt.Errorf("unknown platform %q in config", pc.Name)
		}
	}

	if len(registry) == 0 {
		return nil, errors.New("no platforms enabled")
	}

	return registry, nil
}
