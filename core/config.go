package core

import (
	"fmt"
	"strings"
	"time"
)

type ChannelsConfig struct {
	CredentialRequested string `koanf:"credential_requested" mapstructure:"credential_requested"`
	SelectionChanged    string `koanf:"selection_changed" mapstructure:"selection_changed"`
	ChargeReady         string `koanf:"charge_ready" mapstructure:"charge_ready"`
}

type CredentialConfig struct {
	// ProviderTimeout bounds a single provider call. Zero means unbounded.
	ProviderTimeout time.Duration `koanf:"provider_timeout" mapstructure:"provider_timeout"`
	// DropOutcomeAfterStop suppresses reports from provider calls that were
	// started before the relay was stopped.
	DropOutcomeAfterStop bool `koanf:"drop_outcome_after_stop" mapstructure:"drop_outcome_after_stop"`
}

type ChargeConfig struct {
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type Config struct {
	Name       string           `koanf:"name" mapstructure:"name"`
	Channels   ChannelsConfig   `koanf:"channels" mapstructure:"channels"`
	Credential CredentialConfig `koanf:"credential" mapstructure:"credential"`
	Charge     ChargeConfig     `koanf:"charge" mapstructure:"charge"`
}

func DefaultConfig() Config {
	return Config{
		Name: "paybridge",
		Channels: ChannelsConfig{
			CredentialRequested: DefaultCredentialRequestedChannel,
			SelectionChanged:    DefaultSelectionChangedChannel,
			ChargeReady:         DefaultChargeReadyChannel,
		},
		Charge: ChargeConfig{
			Timeout: 2 * time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	channels := map[string]string{
		"credential_requested": c.Channels.CredentialRequested,
		"selection_changed":    c.Channels.SelectionChanged,
		"charge_ready":         c.Channels.ChargeReady,
	}
	seen := map[string]string{}
	for _, key := range []string{"credential_requested", "selection_changed", "charge_ready"} {
		channel := strings.TrimSpace(channels[key])
		if channel == "" {
			return fmt.Errorf("core: channels.%s is required", key)
		}
		if other, ok := seen[channel]; ok {
			return fmt.Errorf("core: channels.%s must differ from channels.%s", key, other)
		}
		seen[channel] = key
	}
	if c.Credential.ProviderTimeout < 0 {
		return fmt.Errorf("core: credential.provider_timeout must be >= 0")
	}
	if c.Charge.Timeout < 0 {
		return fmt.Errorf("core: charge.timeout must be >= 0")
	}
	return nil
}
