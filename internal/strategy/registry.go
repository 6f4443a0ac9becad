package strategy

import (
	"fmt"
	"sort"
)

// Descriptor bundles everything the outside world needs to know about one
// strategy variant: its id, its parameter schema, and a factory that builds
// a validated instance from a parameter map.
type Descriptor struct {
	ID     string
	Label  string
	Schema []ParamSpec

	// New builds a strategy instance from an already schema-validated
	// parameter map. Factories perform the cross-parameter checks the schema
	// cannot express (e.g. short period < long period).
	New func(p Params) (Strategy, error)
}

// Registry holds the named collection of strategy descriptors for lookup,
// enumeration, and construction.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

// Register adds a descriptor to the registry, keyed by its ID.
func (r *Registry) Register(d Descriptor) {
	r.descriptors[d.ID] = d
}

// List returns a sorted slice of all registered strategy ids.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.descriptors))
	for id := range r.descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Schema returns the parameter schema for a strategy id.
func (r *Registry) Schema(id string) ([]ParamSpec, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", id)
	}
	return d.Schema, nil
}

// Defaults returns the default parameter map for a strategy id.
func (r *Registry) Defaults(id string) (Params, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", id)
	}
	return Defaults(d.Schema), nil
}

// New constructs a strategy instance. Missing parameters take their schema
// defaults; supplied parameters are validated against the schema before the
// factory runs its cross-parameter checks. Validation failures are
// configuration errors and are never silently corrected.
func (r *Registry) New(id string, p Params) (Strategy, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", id)
	}
	if err := ValidateParams(d.Schema, p); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", id, err)
	}

	merged := Defaults(d.Schema)
	for name, value := range p {
		merged[name] = value
	}

	s, err := d.New(merged)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", id, err)
	}
	return s, nil
}
