package profile

// ForeignKeyRef points at the column of another entity that supplies values.
type ForeignKeyRef struct {
	Table  string `json:"table" mapstructure:"table"`
	Column string `json:"column" mapstructure:"column"`
}

// Hints are user-supplied overrides that take precedence over inference.
type Hints struct {
	Name          string         `json:"name" mapstructure:"name"`
	Type          string         `json:"type,omitempty" mapstructure:"type"`
	Categorical   bool           `json:"categorical,omitempty" mapstructure:"categorical"`
	Identifier    bool           `json:"identifier,omitempty" mapstructure:"identifier"`
	Values        []interface{}  `json:"values,omitempty" mapstructure:"values"`
	Probabilities []float64      `json:"probabilities,omitempty" mapstructure:"probabilities"`
	ForeignKey    *ForeignKeyRef `json:"foreign_key,omitempty" mapstructure:"foreign_key"`
	Pattern       string         `json:"pattern,omitempty" mapstructure:"pattern"`
	Faker         string         `json:"faker,omitempty" mapstructure:"faker"`
	CopyOf        string         `json:"copy_of,omitempty" mapstructure:"copy_of"`
	DateOnly      bool           `json:"date_only,omitempty" mapstructure:"date_only"`
	CurrentMoment bool           `json:"current_moment,omitempty" mapstructure:"current_moment"`
	Fields        []Hints        `json:"fields,omitempty" mapstructure:"fields"`
}

// Field returns the hints for a nested key path.
func (h Hints) Field(path string) Hints {
	return Lookup(h.Fields, path)
}

// Lookup finds the hints with the given name, or empty hints.
func Lookup(hints []Hints, name string) Hints {
	for _, h := range hints {
		if h.Name == name {
			return h
		}
	}
	return Hints{Name: name}
}
