package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// FixtureUser is an account created with a known password.
type FixtureUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Fixtures holds the fixed part of the seed data.
type Fixtures struct {
	Password string        `yaml:"password"`
	Admins   []FixtureUser `yaml:"admins"`
	Tags     []string      `yaml:"tags"`
}

// DefaultFixtures returns the embedded fixture set.
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(defaultFixtures)
}

// LoadFixtures parses and validates a YAML fixture document.
func LoadFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if strings.TrimSpace(f.Password) == "" {
		return nil, errors.New("fixtures: password is required")
	}
	if len(f.Tags) == 0 {
		return nil, errors.New("fixtures: at least one tag is required")
	}

	seen := make(map[string]bool, len(f.Admins))
	for _, admin := range f.Admins {
		if admin.Name == "" || admin.Email == "" {
			return nil, errors.New("fixtures: admins need a name and an email")
		}
		key := strings.ToLower(admin.Email)
		if seen[key] {
			return nil, fmt.Errorf("fixtures: duplicate admin email %q", admin.Email)
		}
		seen[key] = true
	}
	return &f, nil
}
