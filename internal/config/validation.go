package config

import (
	"github.com/masonbuild/mason/internal/errors"
)

// Validate checks the whole configuration eagerly, before anything else
// runs. A bad config must never be discovered mid-build, so every
// required field and cross-reference is verified here and the first
// violation is returned with its dotted path.
func (c *Config) Validate() error {
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateGroups(); err != nil {
		return err
	}

	return c.validateModes()
}

func (c *Config) validateProject() error {
	if c.Project.Name == "" {
		return errors.NewConfigError(errors.ErrCodeMissingField,
			"project.name", "project name is required")
	}

	switch c.Project.Language {
	case "":
		return errors.NewConfigError(errors.ErrCodeMissingField,
			"project.language", "project language is required (c or c++)")
	case "c", "c++", "cpp", "cxx":
	default:
		return errors.ConfigErrorf(errors.ErrCodeInvalidValue,
			"project.language", "unsupported language %q (expected c or c++)",
			c.Project.Language)
	}

	if c.Project.Standard == "" {
		return errors.NewConfigError(errors.ErrCodeMissingField,
			"project.standard", "language standard is required (e.g. c11, c++17)")
	}

	return nil
}

func (c *Config) validateGroups() error {
	if len(c.SourceGroups) == 0 {
		return errors.NewConfigError(errors.ErrCodeMissingField,
			"source_groups", "at least one source group is required")
	}

	seen := make(map[string]bool, len(c.SourceGroups))
	for _, g := range c.SourceGroups {
		if g.Name == "" {
			return errors.NewConfigError(errors.ErrCodeMissingField,
				"source_groups", "every source group needs a name")
		}
		if seen[g.Name] {
			return errors.ConfigErrorf(errors.ErrCodeDuplicateGroup,
				DottedPath("source_groups", g.Name),
				"source group %q is declared twice", g.Name)
		}
		seen[g.Name] = true
	}

	return nil
}

// validateModes enforces that every mode names at least one source
// group and that every named group is declared. An empty or missing
// source_groups list is a hard configuration error, never a silent
// default.
func (c *Config) validateModes() error {
	for _, name := range c.ModeNames() {
		mode := c.Build.Modes[name]
		path := DottedPath("build", "modes", name, "source_groups")

		if len(mode.SourceGroups) == 0 {
			return errors.ConfigErrorf(errors.ErrCodeMissingField, path,
				"mode %q must list at least one source group", name)
		}

		for _, ref := range mode.SourceGroups {
			if _, ok := c.Group(ref); !ok {
				return errors.ConfigErrorf(errors.ErrCodeUnknownGroup, path,
					"mode %q references undeclared source group %q", name, ref)
			}
		}
	}

	return nil
}
