package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// Resolve returns the effective configuration for the CLI.
//
// With no path the named variant preset is returned (normal when empty).
// With a path the file is loaded over the preset; an explicit variant argument
// wins over the file's own variant field.
func Resolve(path, variant string) (Config, error) {
	if path == "" {
		if variant == "" {
			variant = VariantNormal
		}
		cfg, err := Preset(variant)
		if err != nil {
			return Config{}, err
		}
		return cfg, cfg.Validate()
	}
	return Load(path, variant)
}

// Load reads a .cue, .json, .yaml or .yml config file.
func Load(path, variant string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data, variant)
}

// Parse checks data against the embedded schema and decodes it over the
// selected preset. The filename extension picks the syntax.
func Parse(filename string, data []byte, variant string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", filename, err)
		}
		v = ctx.BuildFile(f)
	case ".cue", ".json":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .cue, .json, .yaml or .yml)", filepath.Ext(filename))
	}
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate %s: %w", filename, err)
	}

	if variant == "" {
		variant = VariantNormal
		if fv := v.LookupPath(cue.ParsePath("variant")); fv.Exists() {
			if s, err := fv.String(); err == nil {
				variant = s
			}
		}
	}
	cfg, err := Preset(variant)
	if err != nil {
		return Config{}, err
	}

	// A file that lists dates replaces the preset list instead of merging into it.
	if v.LookupPath(cue.ParsePath("grid.dates")).Exists() {
		cfg.Grid.Dates = nil
	}
	if err := v.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", filename, err)
	}
	cfg.Variant = variant

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}
