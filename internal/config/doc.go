// Package config loads and validates viewer configuration from YAML.
//
// ${VAR} references in the file are expanded from the environment before
// parsing. Load, LoadWithDefaults, and LoadAndValidate offer increasing
// strictness; main wants LoadAndValidate.
package config
