// Package prefs persists small UI preferences between runs.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
)

const prefsFile = "prefs.json"

// maxRecentHosts bounds the recent host list.
const maxRecentHosts = 8

// Prefs is the persisted preference set.
type Prefs struct {
	DomainView  string   `json:"domainView,omitempty"`
	LastSession string   `json:"lastSession,omitempty"`
	RecentHosts []string `json:"recentHosts,omitempty"`
}

// Store reads and writes prefs.json in Dir.
type Store struct {
	Dir string
}

// DefaultStore uses the user config directory.
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: filepath.Join(dir, "solvetree")}, nil
}

func (s *Store) path() (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, prefsFile), nil
}

// Load returns the stored prefs; a missing file yields zero prefs.
func (s *Store) Load() (Prefs, error) {
	path, err := s.path()
	if err != nil {
		return Prefs{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, err
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}, err
	}
	return p, nil
}

// Save writes prefs atomically.
func (s *Store) Save(p Prefs) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Update loads, applies fn and saves.
func (s *Store) Update(fn func(*Prefs)) error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	fn(&p)
	return s.Save(p)
}

// RememberHost moves host to the front of the recent list.
func (p *Prefs) RememberHost(host string) {
	if host == "" {
		return
	}
	p.RecentHosts = slices.DeleteFunc(p.RecentHosts, func(h string) bool { return h == host })
	p.RecentHosts = append([]string{host}, p.RecentHosts...)
	if len(p.RecentHosts) > maxRecentHosts {
		p.RecentHosts = p.RecentHosts[:maxRecentHosts]
	}
}
