// Package secrets provides lazily resolved credential values for exporter
// configurations. Secrets are resolved on first use, not at startup, so a
// server can boot without every exporter credential present.
package secrets

import (
	"fmt"
	"os"
	"sync"
)

// Secret is a lazily resolved credential value.
type Secret interface {
	// Value resolves the secret. Implementations may cache the result.
	Value() (string, error)
}

// EnvSecret resolves a secret from an environment variable on first use.
type EnvSecret struct {
	Name string

	once  sync.Once
	value string
	err   error
}

// NewEnvSecret creates a secret backed by the named environment variable.
func NewEnvSecret(name string) *EnvSecret {
	return &EnvSecret{Name: name}
}

// Value resolves the environment variable. The lookup happens once; a missing
// variable is an error, not an empty value.
func (s *EnvSecret) Value() (string, error) {
	s.once.Do(func() {
		value, ok := os.LookupEnv(s.Name)
		if !ok || value == "" {
			s.err = fmt.Errorf("environment variable %s is not set", s.Name)
			return
		}
		s.value = value
	})
	return s.value, s.err
}

// Static is a fixed secret value, mainly useful in tests and example configs.
type Static string

func (s Static) Value() (string, error) {
	return string(s), nil
}
