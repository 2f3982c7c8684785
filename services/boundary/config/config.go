// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the plugin configuration and detects Airship projects.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Mode values.
const (
	ModeOff     = "off"
	ModeWarning = "warning"
	ModeError   = "error"
	ModeMessage = "message"

	CompletionPrefix = "prefix"
	CompletionRemove = "remove"
)

// DefaultFileName is the configuration file looked up in a project root.
const DefaultFileName = "tsboundary.yaml"

var (
	// ErrInvalidConfig indicates a configuration that failed to decode or
	// validate. Parse still returns usable defaults alongside it.
	ErrInvalidConfig = errors.New("invalid plugin configuration")

	// ErrNotAirshipProject indicates no package.json depending on the
	// compiler was found.
	ErrNotAirshipProject = errors.New("not an airship project")
)

var validate = validator.New()

// =============================================================================
// PLUGIN CONFIG
// =============================================================================

// PluginConfig holds the resolved plugin settings.
type PluginConfig struct {
	// ShowCompilerErrors enables the behaviour declaration check and the
	// rewriting of nominal type messages.
	ShowCompilerErrors bool `yaml:"showCompilerErrors" json:"showCompilerErrors"`

	// NetworkBoundaryCheck toggles boundary mismatch diagnostics.
	NetworkBoundaryCheck string `yaml:"networkBoundaryCheck" json:"networkBoundaryCheck" validate:"oneof=off warning"`

	// NetworkBoundaryInfo adds boundary tags to quick info.
	NetworkBoundaryInfo bool `yaml:"networkBoundaryInfo" json:"networkBoundaryInfo"`

	// HideDeprecated drops deprecated completion entries.
	HideDeprecated bool `yaml:"hideDeprecated" json:"hideDeprecated"`

	// DiagnosticsMode is the category of plugin diagnostics, or off.
	DiagnosticsMode string `yaml:"diagnosticsMode" json:"diagnosticsMode" validate:"oneof=off warning error message"`

	// CompletionMode decides what happens to completions the request
	// position cannot see.
	CompletionMode string `yaml:"completionMode" json:"completionMode" validate:"oneof=prefix remove off"`

	// ServerDirectories and ClientDirectories assign a default boundary to
	// every file below them.
	ServerDirectories []string `yaml:"serverDirectories,omitempty" json:"serverDirectories,omitempty" validate:"dive,required"`
	ClientDirectories []string `yaml:"clientDirectories,omitempty" json:"clientDirectories,omitempty" validate:"dive,required"`

	// Symbols renames the well-known symbols.
	Symbols SymbolNames `yaml:"symbols,omitempty" json:"symbols"`
}

// SymbolNames renames the well-known symbols the analysis resolves by
// identity. Empty fields keep the Airship names ($SERVER, $CLIENT, Server,
// Client, Host, Game.IsServer, Game.IsClient, AirshipBehaviour).
type SymbolNames struct {
	ServerDirective string `yaml:"serverDirective,omitempty" json:"serverDirective,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	ClientDirective string `yaml:"clientDirective,omitempty" json:"clientDirective,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	ServerDecorator string `yaml:"serverDecorator,omitempty" json:"serverDecorator,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	ClientDecorator string `yaml:"clientDecorator,omitempty" json:"clientDecorator,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	HostDecorator   string `yaml:"hostDecorator,omitempty" json:"hostDecorator,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	Environment     string `yaml:"environment,omitempty" json:"environment,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	IsServerMethod  string `yaml:"isServerMethod,omitempty" json:"isServerMethod,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	IsClientMethod  string `yaml:"isClientMethod,omitempty" json:"isClientMethod,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`
	Behaviour       string `yaml:"behaviour,omitempty" json:"behaviour,omitempty" validate:"omitempty,max=128,excludesall=(){}[];"`

	// Modules are module specifiers searched, in order, for names that
	// are not declared globally, e.g. "@Easy/Core".
	Modules []string `yaml:"modules,omitempty" json:"modules,omitempty" validate:"omitempty,dive,required"`
}

// overlay returns s with every set field of patch applied.
func (s SymbolNames) overlay(patch SymbolNames) SymbolNames {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.ServerDirective, patch.ServerDirective)
	set(&s.ClientDirective, patch.ClientDirective)
	set(&s.ServerDecorator, patch.ServerDecorator)
	set(&s.ClientDecorator, patch.ClientDecorator)
	set(&s.HostDecorator, patch.HostDecorator)
	set(&s.Environment, patch.Environment)
	set(&s.IsServerMethod, patch.IsServerMethod)
	set(&s.IsClientMethod, patch.IsClientMethod)
	set(&s.Behaviour, patch.Behaviour)
	if patch.Modules != nil {
		s.Modules = slices.Clone(patch.Modules)
	}
	return s
}

// Default returns the configuration used when nothing is configured.
func Default() PluginConfig {
	return PluginConfig{
		ShowCompilerErrors:   true,
		NetworkBoundaryCheck: ModeWarning,
		NetworkBoundaryInfo:  true,
		HideDeprecated:       false,
		DiagnosticsMode:      ModeWarning,
		CompletionMode:       CompletionPrefix,
	}
}

// Validate checks the enumerated fields.
func (c PluginConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Patch is a partial configuration. Nil fields keep the base value.
type Patch struct {
	ShowCompilerErrors   *bool    `yaml:"showCompilerErrors" json:"showCompilerErrors,omitempty"`
	NetworkBoundaryCheck *string  `yaml:"networkBoundaryCheck" json:"networkBoundaryCheck,omitempty" validate:"omitempty,oneof=off warning"`
	NetworkBoundaryInfo  *bool    `yaml:"networkBoundaryInfo" json:"networkBoundaryInfo,omitempty"`
	HideDeprecated       *bool    `yaml:"hideDeprecated" json:"hideDeprecated,omitempty"`
	DiagnosticsMode      *string  `yaml:"diagnosticsMode" json:"diagnosticsMode,omitempty" validate:"omitempty,oneof=off warning error message"`
	CompletionMode       *string  `yaml:"completionMode" json:"completionMode,omitempty" validate:"omitempty,oneof=prefix remove off"`
	ServerDirectories    []string `yaml:"serverDirectories" json:"serverDirectories,omitempty" validate:"omitempty,dive,required"`
	ClientDirectories    []string `yaml:"clientDirectories" json:"clientDirectories,omitempty" validate:"omitempty,dive,required"`

	// Symbols overlays the set names onto the current ones.
	Symbols *SymbolNames `yaml:"symbols" json:"symbols,omitempty"`
}

// Merge returns base with every set field of patch applied.
func Merge(base PluginConfig, patch Patch) PluginConfig {
	out := base
	if patch.ShowCompilerErrors != nil {
		out.ShowCompilerErrors = *patch.ShowCompilerErrors
	}
	if patch.NetworkBoundaryCheck != nil {
		out.NetworkBoundaryCheck = *patch.NetworkBoundaryCheck
	}
	if patch.NetworkBoundaryInfo != nil {
		out.NetworkBoundaryInfo = *patch.NetworkBoundaryInfo
	}
	if patch.HideDeprecated != nil {
		out.HideDeprecated = *patch.HideDeprecated
	}
	if patch.DiagnosticsMode != nil {
		out.DiagnosticsMode = *patch.DiagnosticsMode
	}
	if patch.CompletionMode != nil {
		out.CompletionMode = *patch.CompletionMode
	}
	if patch.ServerDirectories != nil {
		out.ServerDirectories = slices.Clone(patch.ServerDirectories)
	}
	if patch.ClientDirectories != nil {
		out.ClientDirectories = slices.Clone(patch.ClientDirectories)
	}
	if patch.Symbols != nil {
		out.Symbols = out.Symbols.overlay(*patch.Symbols)
	}
	return out
}

// ParsePatch decodes and validates a partial configuration. JSON input is
// accepted since it is valid YAML. Unknown keys are ignored.
func ParsePatch(raw []byte) (Patch, error) {
	var p Patch
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validate.Struct(p); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return p, nil
}

// Parse resolves a raw configuration against the defaults.
//
// Description:
//
//	Every field is optional. If any field fails to decode or validate,
//	the whole input is discarded: the defaults are returned together
//	with an error wrapping ErrInvalidConfig so the caller can warn.
//
// Outputs:
//   - PluginConfig: Always usable.
//   - error: Non-nil when the input was discarded.
func Parse(raw []byte) (PluginConfig, error) {
	p, err := ParsePatch(raw)
	if err != nil {
		return Default(), err
	}
	return Merge(Default(), p), nil
}

// Load reads and parses a configuration file. A missing file yields the
// defaults.
func Load(path string) (PluginConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
