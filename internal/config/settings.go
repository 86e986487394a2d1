package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned when a settings file fails validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the projection overrides for a project.
type Settings struct {
	TeamMembers int     `json:"team_members,omitempty" yaml:"team_members,omitempty" jsonschema:"team size used to rescale velocity"`
	Velocity    float64 `json:"velocity,omitempty" yaml:"velocity,omitempty" jsonschema:"fixed velocity in story points per day"`
}

// SettingsFile is the YAML document referenced by EPIC_SETTINGS_FILE.
//
//	team_members: 5
//	projects:
//	  PROJ:
//	    velocity: 2.5
type SettingsFile struct {
	TeamMembers int                 `json:"team_members,omitempty" yaml:"team_members,omitempty" jsonschema:"default team size"`
	Velocity    float64             `json:"velocity,omitempty" yaml:"velocity,omitempty" jsonschema:"default velocity in story points per day"`
	Projects    map[string]Settings `json:"projects,omitempty" yaml:"projects,omitempty" jsonschema:"per project key overrides"`
}

// Defaults returns the top-level settings.
func (f SettingsFile) Defaults() Settings {
	return Settings{TeamMembers: f.TeamMembers, Velocity: f.Velocity}
}

// Validate rejects negative or non-finite overrides.
func (s Settings) Validate() error {
	if s.TeamMembers < 0 {
		return fmt.Errorf("%w: team_members must not be negative", ErrInvalidSettings)
	}
	if s.Velocity < 0 || math.IsNaN(s.Velocity) || math.IsInf(s.Velocity, 0) {
		return fmt.Errorf("%w: velocity must be a positive number", ErrInvalidSettings)
	}
	return nil
}

// Merge returns s with every non-zero field of other applied on top.
func (s Settings) Merge(other Settings) Settings {
	if other.TeamMembers > 0 {
		s.TeamMembers = other.TeamMembers
	}
	if other.Velocity > 0 {
		s.Velocity = other.Velocity
	}
	return s
}

var (
	schemaOnce     sync.Once
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

// settingsSchema derives the JSON schema of SettingsFile once.
func settingsSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		schema, err := jsonschema.For[SettingsFile](nil)
		if err != nil {
			schemaErr = fmt.Errorf("failed to derive settings schema: %w", err)
			return
		}
		zero := 0.0
		for _, name := range []string{"team_members", "velocity"} {
			if prop, ok := schema.Properties[name]; ok {
				prop.Minimum = &zero
			}
		}
		resolvedSchema, schemaErr = schema.Resolve(nil)
	})
	return resolvedSchema, schemaErr
}

// ParseSettings decodes and validates a YAML settings document.
func ParseSettings(data []byte) (SettingsFile, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SettingsFile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if raw != nil {
		// Round-trip through JSON so the validator sees plain JSON values.
		js, err := json.Marshal(raw)
		if err != nil {
			return SettingsFile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		var instance any
		if err := json.Unmarshal(js, &instance); err != nil {
			return SettingsFile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}

		schema, err := settingsSchema()
		if err != nil {
			return SettingsFile{}, err
		}
		if err := schema.Validate(instance); err != nil {
			return SettingsFile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}

	var file SettingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SettingsFile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := file.Defaults().Validate(); err != nil {
		return SettingsFile{}, err
	}
	for key, s := range file.Projects {
		if err := s.Validate(); err != nil {
			return SettingsFile{}, fmt.Errorf("project %s: %w", key, err)
		}
	}
	return file, nil
}

// LoadSettingsFile reads and validates a YAML settings file.
func LoadSettingsFile(path string) (SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SettingsFile{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	file, err := ParseSettings(data)
	if err != nil {
		return SettingsFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// ForProject resolves the settings for a project key: file defaults, then the
// project entry.
func (f SettingsFile) ForProject(key string) Settings {
	s := f.Defaults()
	if p, ok := f.Projects[key]; ok {
		s = s.Merge(p)
	}
	return s
}
