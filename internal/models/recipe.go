package models

// Recipe is a named template of setup steps applied to a new tenant.
type Recipe struct {
	Name          string       `yaml:"name" json:"name"`
	DisplayName   string       `yaml:"displayName" json:"display_name"`
	Description   string       `yaml:"description" json:"description"`
	Author        string       `yaml:"author" json:"author,omitempty"`
	Version       string       `yaml:"version" json:"version,omitempty"`
	IsSetupRecipe bool         `yaml:"isSetupRecipe" json:"is_setup_recipe"`
	Categories    []string     `yaml:"categories" json:"categories,omitempty"`
	Tags          []string     `yaml:"tags" json:"tags,omitempty"`
	Steps         []RecipeStep `yaml:"steps" json:"steps,omitempty"`

	// Source is the file the recipe was loaded from.
	Source string `yaml:"-" json:"-"`
}

type RecipeStep struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:",inline" json:"params,omitempty"`
}

// Label is what the registration form shows for the recipe.
func (r Recipe) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}
