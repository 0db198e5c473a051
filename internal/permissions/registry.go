// Package permissions loads the project role policy and answers role/action checks.
package permissions

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the resolved (inheritance-flattened) action set per role.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	roles   map[string]*RoleDefinition
	allowed map[string]map[string]bool
}

// NewRegistry loads the embedded role policy
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read role policy: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML policy bytes
func Parse(data []byte) (*Registry, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role policy: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("role policy defines no roles")
	}

	r := &Registry{
		roles:   file.Roles,
		allowed: make(map[string]map[string]bool, len(file.Roles)),
	}
	for name, def := range file.Roles {
		def.Name = name
	}
	for name := range file.Roles {
		actions := make(map[string]bool)
		if err := r.collect(name, actions, map[string]bool{}); err != nil {
			return nil, err
		}
		r.allowed[name] = actions
	}
	return r, nil
}

// collect walks the inheritance chain; visiting guards against cyclic inherits
func (r *Registry) collect(role string, into, visiting map[string]bool) error {
	if visiting[role] {
		return fmt.Errorf("role %q inherits itself", role)
	}
	def, ok := r.roles[role]
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	visiting[role] = true
	for _, a := range def.Actions {
		into[a] = true
	}
	for _, parent := range def.Inherits {
		if err := r.collect(parent, into, visiting); err != nil {
			return err
		}
	}
	delete(visiting, role)
	return nil
}

// Allows reports whether role grants action. Unknown roles grant nothing.
func (r *Registry) Allows(role, action string) bool {
	return r.allowed[role][action]
}

// IsRole reports whether role is defined
func (r *Registry) IsRole(role string) bool {
	_, ok := r.roles[role]
	return ok
}

// Outranks reports whether role a ranks strictly above role b
func (r *Registry) Outranks(a, b string) bool {
	ra, okA := r.roles[a]
	rb, okB := r.roles[b]
	return okA && okB && ra.Rank > rb.Rank
}

// Roles lists role definitions ordered by rank DESC
func (r *Registry) Roles() []RoleDefinition {
	out := make([]RoleDefinition, 0, len(r.roles))
	for _, def := range r.roles {
		out = append(out, *def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
	return out
}

// Actions returns the flattened, sorted action list for role
func (r *Registry) Actions(role string) []string {
	out := make([]string, 0, len(r.allowed[role]))
	for a := range r.allowed[role] {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
