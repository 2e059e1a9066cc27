package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/service"
)

var (
	ErrProfileNotFound = service.ErrProfileNotFound
	ErrInvalidProfile  = service.ErrInvalidProfile
)

// profileExts are tried in order when resolving a profile name to a file.
var profileExts = []string{".yaml", ".yml", ".json"}

// Manager handles profile loading and caching
type Manager struct {
	profileDir     string
	defaultProfile *engine.Profile
	profiles       map[string]*engine.Profile
	mu             sync.RWMutex
}

// NewManager creates a new profile manager
func NewManager(profileDir string) (*Manager, error) {
	if _, err := os.Stat(profileDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("profile directory does not exist: %s", profileDir)
	}

	m := &Manager{
		profileDir: profileDir,
		profiles:   make(map[string]*engine.Profile),
	}

	if err := m.loadDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to load default profile: %w", err)
	}

	return m, nil
}

// LoadProfile loads a profile by name. The name may carry its extension.
func (m *Manager) LoadProfile(name string) (*engine.Profile, error) {
	id := profileID(name)
	if !validProfileID(id) {
		return nil, fmt.Errorf("%w: bad profile name %q", ErrInvalidProfile, name)
	}

	m.mu.RLock()
	if p, exists := m.profiles[id]; exists {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if p, exists := m.profiles[id]; exists {
		return p, nil
	}

	p, err := m.readProfile(name)
	if err != nil {
		return nil, err
	}

	m.profiles[id] = p
	return p, nil
}

func (m *Manager) readProfile(name string) (*engine.Profile, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range profileExts {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		path := filepath.Join(m.profileDir, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read profile file: %w", err)
		}
		return ParseProfile(filename, data)
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// ParseProfile decodes a profile from YAML or JSON, chosen by the file
// extension, and validates it.
func ParseProfile(filename string, data []byte) (*engine.Profile, error) {
	var p engine.Profile
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidProfile, filename, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidProfile, filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported file type %s", ErrInvalidProfile, filename)
	}

	if err := engine.ValidateProfile(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return &p, nil
}

// ListProfiles returns information about all loadable profiles, sorted by id
func (m *Manager) ListProfiles() ([]*service.ProfileInfo, error) {
	entries, err := os.ReadDir(m.profileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	seen := make(map[string]bool)
	var profiles []*service.ProfileInfo

	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}

		id := profileID(entry.Name())
		if seen[id] {
			continue
		}

		p, err := m.LoadProfile(entry.Name())
		if err != nil {
			// Skip invalid profiles
			continue
		}
		seen[id] = true

		profiles = append(profiles, &service.ProfileInfo{
			Filename:    entry.Name(),
			ProfileID:   id,
			Name:        p.Name,
			Description: p.Description,
			Bindings:    p.Bindings,
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ProfileID < profiles[j].ProfileID })
	return profiles, nil
}

// GetDefault returns the default profile
func (m *Manager) GetDefault() *engine.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault sets the default profile by name
func (m *Manager) SetDefault(name string) error {
	p, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultProfile = p
	return nil
}

// RefreshCache drops cached profiles and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.profiles = make(map[string]*engine.Profile)
	m.mu.Unlock()

	return m.loadDefaultProfile()
}

// loadDefaultProfile picks classic from disk, then the first loadable
// profile, then the built-in classic profile.
func (m *Manager) loadDefaultProfile() error {
	p, err := m.LoadProfile("classic")
	if err != nil {
		profiles, listErr := m.ListProfiles()
		if listErr != nil || len(profiles) == 0 {
			p = engine.DefaultProfile()
		} else if p, err = m.LoadProfile(profiles[0].Filename); err != nil {
			p = engine.DefaultProfile()
		}
	}

	m.mu.Lock()
	m.defaultProfile = p
	m.mu.Unlock()
	return nil
}

// SaveProfile validates a profile and writes it as YAML
func (m *Manager) SaveProfile(name string, p *engine.Profile) error {
	if err := engine.ValidateProfile(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	id := profileID(name)
	if !validProfileID(id) {
		return fmt.Errorf("%w: bad profile name %q", ErrInvalidProfile, name)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	path := filepath.Join(m.profileDir, id+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[id] = p
	m.mu.Unlock()

	return nil
}

func isProfileFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range profileExts {
		if ext == e {
			return true
		}
	}
	return false
}

// validProfileID reports whether id names a file directly inside the
// profile directory.
func validProfileID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..") && id != "."
}

// profileID strips a known extension from a file or profile name.
func profileID(name string) string {
	if isProfileFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
