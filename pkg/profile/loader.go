// Package profile loads disclosure profiles from YAML or JSONC files and the
// built-in set.
package profile

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// Format is the encoding of a profiles file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSONC
)

// FormatForPath picks the format from a file extension. Unknown extensions are YAML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Loader handles loading profiles from files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in profiles
}

// NewLoader creates a loader with built-in profiles from the embedded filesystem.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinProfilesFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// LoadProfiles parses every profile in data.
func (l *Loader) LoadProfiles(data []byte, format Format) ([]*types.Profile, error) {
	var file yamlProfilesFile
	switch format {
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, fmt.Errorf("failed to parse JSONC: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles found")
	}

	profiles := make([]*types.Profile, 0, len(file.Profiles))
	for _, yp := range file.Profiles {
		p := convertYAMLProfile(yp)
		if err := ValidateProfile(p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// LoadProfile loads a single profile from YAML bytes.
// Returns error if YAML is invalid or multiple profiles are present.
func (l *Loader) LoadProfile(data []byte) (*types.Profile, error) {
	profiles, err := l.LoadProfiles(data, FormatYAML)
	if err != nil {
		return nil, err
	}
	if len(profiles) > 1 {
		return nil, fmt.Errorf("expected single profile, found %d", len(profiles))
	}
	return profiles[0], nil
}

// LoadProfileFile loads all profiles from a YAML or JSONC file path.
func (l *Loader) LoadProfileFile(path string) ([]*types.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	profiles, err := l.LoadProfiles(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// LoadBuiltinProfiles loads all built-in profiles, sorted by ID.
func (l *Loader) LoadBuiltinProfiles() ([]*types.Profile, error) {
	var profiles []*types.Profile

	err := fs.WalkDir(l.fs, "profiles", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".yml" && ext != ".jsonc") {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.LoadProfiles(data, FormatForPath(path))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		profiles = append(profiles, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

// Find returns the profile with the given ID.
func Find(profiles []*types.Profile, id string) (*types.Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// convertYAMLProfile converts yamlProfile to types.Profile and computes StructuralID.
func convertYAMLProfile(yp yamlProfile) *types.Profile {
	p := &types.Profile{
		ID:          yp.ID,
		Name:        yp.Name,
		Description: yp.Description,
		Sent:        types.Selection(yp.Sent),
		Received:    types.Selection(yp.Received),
		Fallback:    yp.Fallback,
	}
	for _, ye := range yp.Extract {
		p.Extract = append(p.Extract, types.ExtractRule{
			Field:     ye.Field,
			Direction: types.Direction(ye.Direction),
			Pattern:   ye.Pattern,
			Required:  ye.Required,
		})
	}
	p.StructuralID = p.ComputeStructuralID()
	return p
}
