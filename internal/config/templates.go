package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// TemplatesFile is the on-disk shape of INTERVIEW_TEMPLATES_PATH.
type TemplatesFile struct {
	Templates map[string]domain.InterviewConfig `yaml:"templates"`
}

// Templates holds named interview configurations.
type Templates map[string]domain.InterviewConfig

// LoadTemplates reads interview templates from a YAML file. An empty path
// yields an empty set.
func LoadTemplates(path string) (Templates, error) {
	if strings.TrimSpace(path) == "" {
		return Templates{}, nil
	}
	// #nosec G304 -- path comes from operator configuration
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadTemplates: %w", err)
	}
	return ParseTemplates(content)
}

// ParseTemplates decodes and validates template YAML.
func ParseTemplates(content []byte) (Templates, error) {
	var f TemplatesFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("op=config.ParseTemplates: %w", err)
	}
	out := make(Templates, len(f.Templates))
	for name, tpl := range f.Templates {
		if err := validateTemplate(name, &tpl); err != nil {
			return nil, fmt.Errorf("op=config.ParseTemplates: %w", err)
		}
		out[name] = tpl
	}
	return out, nil
}

func validateTemplate(name string, tpl *domain.InterviewConfig) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: template without a name", domain.ErrInvalidArgument)
	}
	if err := tpl.Normalize(); err != nil {
		return fmt.Errorf("template %q: %w", name, err)
	}
	return nil
}

// Lookup returns the template by name.
func (t Templates) Lookup(name string) (domain.InterviewConfig, error) {
	tpl, ok := t[name]
	if !ok {
		return domain.InterviewConfig{}, fmt.Errorf("%w: interview template %q", domain.ErrNotFound, name)
	}
	return tpl, nil
}
