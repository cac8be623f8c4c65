package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPaths lists the configuration files read on startup.
// Missing files are ignored.
var DefaultConfigPaths = []string{"finstmt.yaml", "~/.config/finstmt/config.yaml"}

// YAML is a kong.ConfigurationLoader for YAML files. Keys are flag names.
// Flags of a command may also be nested under the command name:
//
//	user-agent: Example Corp admin@example.com
//	extract:
//	  out: statements
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if v, ok := section[flag.Name]; ok {
					return scalar(v), nil
				}
			}
		}
		if v, ok := values[flag.Name]; ok {
			return scalar(v), nil
		}
		return nil, nil
	}
	return f, nil
}

// scalar renders YAML scalars as strings so kong's mappers parse them
// exactly like command-line values.
func scalar(v any) any {
	switch v := v.(type) {
	case nil, string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
