// Package config defines the planner's configuration options (spec §6) and
// loads them from either cobra flags or a YAML file, the way the pack's
// plugin-configuration loaders do (gopkg.in/yaml.v3 for the file form).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options bundles every configuration option this tool accepts, plus the
// ambient Verbose/SortArgsByRating switches this repository adds on top.
type Options struct {
	// LowerD ("d"): earliest iteration at which solving is attempted.
	LowerD int `yaml:"min_iteration"`
	// D: maximum iteration count; 0 = unbounded.
	D int `yaml:"max_layers"`
	// CS ("check solvability"): on UNSAT with assumptions, re-solve without
	// assumptions to tell Unsolvable apart from DepthExhausted.
	CS bool `yaml:"check_solvability"`
	// Q enables precondition-restricted eager grounding.
	Q bool `yaml:"preconditions_only"`
	// QQ disables eager grounding entirely, always falling back to lifted ops.
	QQ bool `yaml:"instantiate_nothing"`
	// QConstInstantiationLimit caps bounded enumeration before falling back
	// to the lifted representation.
	QConstInstantiationLimit int `yaml:"q_const_instantiation_limit"`
	// QConstRatingFactor scales precondition ratings when Q decides which
	// arguments are worth eager grounding.
	QConstRatingFactor float64 `yaml:"q_const_rating_factor"`
	// NPS: encode fact support for non-primitive operations too.
	NPS bool `yaml:"nps"`
	// SortArgsByRating resolves spec Open Question (b) as a user-visible switch.
	SortArgsByRating bool `yaml:"sort_args_by_rating"`
	// PrintFormula dumps the DIMACS-like clause set instead of solving.
	PrintFormula bool `yaml:"print_formula"`
	// Verbose enables "c "-prefixed progress logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the options the CLI starts from before flags/file
// overrides are applied.
func Default() Options {
	return Options{
		LowerD:             0,
		D:                  0,
		QConstRatingFactor: 1.0,
	}
}

// Load reads options from a YAML file at path, starting from Default().
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return opts, nil
}

// Validate rejects inconsistent option combinations before a solver ever
// gets built from them.
func (o Options) Validate() error {
	if o.D < 0 {
		return fmt.Errorf("config: max_layers must be >= 0, got %d", o.D)
	}
	if o.LowerD < 0 {
		return fmt.Errorf("config: min_iteration must be >= 0, got %d", o.LowerD)
	}
	if o.D > 0 && o.LowerD > o.D {
		return fmt.Errorf("config: min_iteration (%d) must not exceed max_layers (%d)", o.LowerD, o.D)
	}
	if o.Q && o.QQ {
		return fmt.Errorf("config: preconditions_only and instantiate_nothing are mutually exclusive")
	}
	if o.QConstInstantiationLimit < 0 {
		return fmt.Errorf("config: q_const_instantiation_limit must be >= 0, got %d", o.QConstInstantiationLimit)
	}
	return nil
}
