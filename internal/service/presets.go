package service

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"estimator/internal/model"
)

//go:embed presets.yaml
var presetsYAML []byte

// Presets holds the quick-fill form templates
type Presets struct {
	list []model.Preset
	byID map[string]int
}

// LoadPresets parses the built-in templates
func LoadPresets() (*Presets, error) {
	return ParsePresets(presetsYAML)
}

// ParsePresets parses and validates a YAML list of templates
func ParsePresets(data []byte) (*Presets, error) {
	var list []model.Preset
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, eris.Wrap(err, "service: parse presets")
	}

	p := &Presets{list: list, byID: make(map[string]int, len(list))}
	for i, preset := range list {
		if preset.ID == "" {
			return nil, eris.Errorf("service: preset %d has no id", i)
		}
		if _, dup := p.byID[preset.ID]; dup {
			return nil, eris.Errorf("service: duplicate preset id %q", preset.ID)
		}
		if err := preset.Input.Validate(); err != nil {
			return nil, eris.Wrapf(err, "service: preset %q", preset.ID)
		}
		p.byID[preset.ID] = i
	}
	return p, nil
}

// List returns all templates in file order
func (p *Presets) List() []model.Preset {
	out := make([]model.Preset, len(p.list))
	copy(out, p.list)
	return out
}

// Get returns the template with the given id
func (p *Presets) Get(id string) (model.Preset, bool) {
	i, ok := p.byID[id]
	if !ok {
		return model.Preset{}, false
	}
	return p.list[i], true
}
