package config

import (
	"fmt"

	"dario.cat/mergo"
)

// configSource produces one layer of configuration. Sources merge in
// registration order: the first non-zero value for a field wins, later
// sources only fill gaps.
type configSource func() (*StructuredConfig, error)

type configBuilder struct {
	sources []configSource
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		sources: make([]configSource, 0, 2),
	}
}

func (b *configBuilder) withEnv() *configBuilder {
	b.sources = append(b.sources, parseEnv)
	return b
}

func (b *configBuilder) withFlags() *configBuilder {
	b.sources = append(b.sources, func() (*StructuredConfig, error) {
		return ParseFlags(), nil
	})
	return b
}

// build merges every registered source, then layers in the optional JSON
// file whose path arrived through one of them, and validates the result.
func (b *configBuilder) build() (*StructuredConfig, error) {
	config := new(StructuredConfig)
	for _, source := range b.sources {
		cfg, err := source()
		if err != nil {
			return nil, fmt.Errorf("error occured during building config: %w", err)
		}
		if err = mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if config.JSONFilePath != "" {
		jsonCfg, err := parseJSON(config.JSONFilePath)
		if err != nil {
			return nil, fmt.Errorf("error occured during building config: %w", err)
		}
		if err = mergo.Merge(config, jsonCfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, config.validate()
}
