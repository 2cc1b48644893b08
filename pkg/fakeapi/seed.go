package fakeapi

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in demo data.
func DefaultSeed() Seed {
	seed, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(err)
	}

	return seed
}

// LoadSeed reads seed data from a YAML file.
func LoadSeed(filename string) (Seed, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Seed{}, fmt.Errorf("error reading seed file %s: %w", filename, err)
	}

	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("error parsing seed: %w", err)
	}

	return seed, nil
}
