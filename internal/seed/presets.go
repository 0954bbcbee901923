package seed

import (
	_ "embed"
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var presetsYAML []byte

// Preset is a named bundle of seeding knobs declared in presets.yml.
type Preset struct {
	Users    int  `yaml:"users"`
	Manga    int  `yaml:"manga"`
	Comments int  `yaml:"comments"`
	Backlog  bool `yaml:"backlog"`
}

func loadPresets() (map[string]Preset, error) {
	presets := make(map[string]Preset)
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets.yml: %w", err)
	}
	return presets, nil
}

// ApplyPreset runs the full seeding pipeline with the named preset's knobs.
func (s *Seeder) ApplyPreset(name string) error {
	presets, err := loadPresets()
	if err != nil {
		return err
	}
	preset, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		return fmt.Errorf("unknown preset %q (available: %v)", name, names)
	}

	log.Printf("Applying preset %q: %d users, %d titles, %d comments", name,
		preset.Users, preset.Manga, preset.Comments)

	users, err := s.SeedCommunity(preset.Users)
	if err != nil {
		return fmt.Errorf("community seeding failed: %w", err)
	}
	mangas, err := s.SeedCatalog(users, preset.Manga)
	if err != nil {
		return fmt.Errorf("catalog seeding failed: %w", err)
	}
	if err := s.SeedEngagement(users, mangas, preset.Comments); err != nil {
		return fmt.Errorf("engagement seeding failed: %w", err)
	}
	if preset.Backlog {
		if err := s.SeedModerationBacklog(users); err != nil {
			return fmt.Errorf("backlog seeding failed: %w", err)
		}
	}
	return nil
}
