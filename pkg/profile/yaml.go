package profile

// yamlSelection mirrors types.Selection in profile files.
type yamlSelection struct {
	Keypaths []string `yaml:"keypaths,omitempty" json:"keypaths,omitempty"`
	Headers  []string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Query    []string `yaml:"query,omitempty" json:"query,omitempty"`
}

// yamlExtract mirrors types.ExtractRule in profile files.
type yamlExtract struct {
	Field     string `yaml:"field" json:"field"`
	Direction string `yaml:"direction" json:"direction"`
	Pattern   string `yaml:"pattern" json:"pattern"`
	Required  bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// yamlProfile is the on-disk form of a profile. JSONC files use the same field names.
type yamlProfile struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Sent        yamlSelection `yaml:"sent,omitempty" json:"sent,omitempty"`
	Received    yamlSelection `yaml:"received,omitempty" json:"received,omitempty"`
	Fallback    bool          `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Extract     []yamlExtract `yaml:"extract,omitempty" json:"extract,omitempty"`
}

// yamlProfilesFile is the top-level structure of a profiles file.
type yamlProfilesFile struct {
	Profiles []yamlProfile `yaml:"profiles" json:"profiles"`
}
