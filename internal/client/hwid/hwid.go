// Package hwid derives the hardware identifier licensectl presents when
// authenticating.
package hwid

import (
	"errors"
	"os"
	"strings"

	"github.com/dmitrijs2005/keybind/internal/cryptox"
)

// MachineIDPaths are tried in order; the first non-empty one wins.
var MachineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// ErrNoSource is returned when neither a machine id nor a hostname is available.
var ErrNoSource = errors.New("no hardware identifier source available")

// Source reads the raw identifier material.
type Source struct {
	Paths    []string
	Hostname func() (string, error)
}

// DefaultSource reads the system machine id, falling back to the hostname.
func DefaultSource() Source {
	return Source{Paths: MachineIDPaths, Hostname: os.Hostname}
}

// Fingerprint returns the upper-case SHA-256 hex of the machine id, or of
// the hostname when no machine id can be read.
func (s Source) Fingerprint() (string, error) {
	for _, p := range s.Paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(b)); id != "" {
			return cryptox.Fingerprint(id), nil
		}
	}

	if s.Hostname != nil {
		name, err := s.Hostname()
		if err == nil && strings.TrimSpace(name) != "" {
			return cryptox.Fingerprint(strings.TrimSpace(name)), nil
		}
	}

	return "", ErrNoSource
}

// Fingerprint is DefaultSource().Fingerprint().
func Fingerprint() (string, error) {
	return DefaultSource().Fingerprint()
}
