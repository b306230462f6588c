package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/morezero/host-interop/pkg/component"
	"github.com/morezero/host-interop/pkg/query"
	"github.com/morezero/host-interop/pkg/selection"
	"github.com/morezero/host-interop/pkg/version"
)

const logPrefix = "bootstrap:loader"

// LoadBootstrapConfig loads bootstrap config from file paths or environment.
// It tries paths in order: first any paths passed in, then INTEROP_BOOTSTRAP_FILE env, then defaults.
func LoadBootstrapConfig(paths ...string) (*BootstrapConfig, error) {
	all := make([]string, 0, len(paths)+4)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("INTEROP_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/interop.json", "config/interop.yaml", "interop.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		cfg, err := ParseBootstrapConfig(filepath.Ext(p), data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap config from %s", logPrefix, p))
		return MergeBootstrapConfigs(GetDefaultBootstrapConfig(), cfg), nil
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap config", logPrefix))
	return GetDefaultBootstrapConfig(), nil
}

// ParseBootstrapConfig decodes JSON, or YAML when ext is ".yaml"/".yml".
func ParseBootstrapConfig(ext string, data []byte) (*BootstrapConfig, error) {
	var cfg BootstrapConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// GetDefaultBootstrapConfig returns the built-in configuration: every service
// this client implements, no host services, host type NX.
func GetDefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Name:        "host-interop-bootstrap",
		Version:     "1.0.0",
		Description: "Default host interop configuration",
		HostType:    "NX",
		ClientServices: map[string]BootstrapService{
			selection.FQN: {
				Versions:    append([]string(nil), selection.Versions...),
				Description: "Selection synchronization",
			},
			query.FQN: {
				Versions:    []string{version.V2014_02},
				Description: "Ad hoc host queries",
			},
			component.ContextFQN: {
				Versions:    []string{version.V2014_07},
				Description: "Hosted component context",
			},
			component.ComponentFQN: {
				Versions:    []string{version.V2014_07},
				Description: "Show hosted component",
			},
		},
		Aliases: map[string]string{
			"selection": selection.FQN,
			"query":     query.FQN,
			"context":   component.ContextFQN,
			"component": component.ComponentFQN,
		},
	}
}

// CreateResolvedBootstrap builds a ResolvedBootstrap for fast lookups.
func CreateResolvedBootstrap(cfg *BootstrapConfig) *ResolvedBootstrap {
	aliases := make(map[string]string, len(cfg.Aliases))
	for alias, target := range cfg.Aliases {
		aliases[alias] = target
	}

	return &ResolvedBootstrap{
		name:       cfg.Name,
		version:    cfg.Version,
		hostType:   cfg.HostType,
		client:     copyServices(cfg.ClientServices),
		host:       copyServices(cfg.HostServices),
		aliases:    aliases,
		components: append([]component.Entry(nil), cfg.Components...),
	}
}

// MergeBootstrapConfigs merges an override config into a base config.
func MergeBootstrapConfigs(base, override *BootstrapConfig) *BootstrapConfig {
	merged := *base
	merged.ClientServices = mergeServices(base.ClientServices, override.ClientServices)
	merged.HostServices = mergeServices(base.HostServices, override.HostServices)

	merged.Aliases = make(map[string]string, len(base.Aliases)+len(override.Aliases))
	for alias, target := range base.Aliases {
		merged.Aliases[alias] = target
	}
	for alias, target := range override.Aliases {
		merged.Aliases[alias] = target
	}

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.Description != "" {
		merged.Description = override.Description
	}
	if override.HostType != "" {
		merged.HostType = override.HostType
	}
	if len(override.Components) > 0 {
		merged.Components = append([]component.Entry(nil), override.Components...)
	}
	return &merged
}

func mergeServices(base, override map[string]BootstrapService) map[string]BootstrapService {
	out := make(map[string]BootstrapService, len(base)+len(override))
	for fqn, svc := range base {
		out[fqn] = svc
	}
	for fqn, svc := range override {
		out[fqn] = svc
	}
	return out
}

func copyServices(in map[string]BootstrapService) map[string]*BootstrapService {
	out := make(map[string]*BootstrapService, len(in))
	for fqn, svc := range in {
		s := svc
		s.Versions = append([]string(nil), svc.Versions...)
		out[fqn] = &s
	}
	return out
}
