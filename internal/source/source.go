// Package source holds per-supplier configuration. A source is data, not
// code: a strategy tag, a set of targets, and the selector or column map the
// generic extraction routine consumes.
package source

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Strategy selects how raw content for a source is acquired. The choice is a
// static per-source configuration, not runtime detection.
type Strategy string

// Supported acquisition strategies.
const (
	StrategyStatic   Strategy = "static"
	StrategyRendered Strategy = "rendered"
	StrategyExcel    Strategy = "excel"
	StrategyPDF      Strategy = "pdf"
)

// Credentials are the backend login for this supplier. They select the
// supplier's backend identity; they never carry the identity itself.
type Credentials struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Columns maps spreadsheet/PDF column positions onto listing fields.
// Image is optional (-1 when absent).
type Columns struct {
	Name     int `mapstructure:"name"`
	Price    int `mapstructure:"price"`
	Image    int `mapstructure:"image"`
	SkipRows int `mapstructure:"skip_rows"`
}

// Source is one configured supplier: the unit of work for a pipeline run.
type Source struct {
	Name        string            `mapstructure:"-"`
	Strategy    Strategy          `mapstructure:"strategy"`
	URLs        []string          `mapstructure:"urls"`
	Files       []string          `mapstructure:"files"`
	Sheet       string            `mapstructure:"sheet"`
	Selectors   map[string]string `mapstructure:"selectors"`
	Columns     Columns           `mapstructure:"columns"`
	Credentials Credentials       `mapstructure:"credentials"`
}

// Targets returns the URLs or file paths this source acquires, depending on
// its strategy.
func (s Source) Targets() []string {
	if s.Strategy == StrategyExcel || s.Strategy == StrategyPDF {
		return s.Files
	}
	return s.URLs
}

// Validate checks for obviously bad configuration combinations.
func (s Source) Validate() error {
	switch s.Strategy {
	case StrategyStatic, StrategyRendered:
		if len(s.URLs) == 0 {
			return fmt.Errorf("supplier %s: strategy %q requires at least one url", s.Name, s.Strategy)
		}
		if len(s.Selectors) == 0 {
			return fmt.Errorf("supplier %s: strategy %q requires a selector map", s.Name, s.Strategy)
		}
	case StrategyExcel, StrategyPDF:
		if len(s.Files) == 0 {
			return fmt.Errorf("supplier %s: strategy %q requires at least one file", s.Name, s.Strategy)
		}
	default:
		return fmt.Errorf("supplier %s: unknown strategy %q", s.Name, s.Strategy)
	}
	if s.Credentials.Email == "" || s.Credentials.Password == "" {
		return fmt.Errorf("supplier %s: backend credentials are required", s.Name)
	}
	return nil
}

// Load reads one supplier's configuration from Viper under suppliers.<name>.
func Load(v *viper.Viper, name string) (Source, error) {
	key := "suppliers." + name
	if !v.IsSet(key) {
		return Source{}, fmt.Errorf("no configuration for supplier %q", name)
	}
	var src Source
	if err := v.UnmarshalKey(key, &src); err != nil {
		return Source{}, fmt.Errorf("decode supplier %q: %w", name, err)
	}
	src.Name = name
	if src.Columns.Image == 0 && !v.IsSet(key+".columns.image") {
		src.Columns.Image = -1
	}
	return src, src.Validate()
}

// List returns the configured supplier names, sorted for stable output.
func List(v *viper.Viper) []string {
	raw := v.GetStringMap("suppliers")
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
