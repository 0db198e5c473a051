package permissions

// RoleDefinition is one entry of the embedded role policy
type RoleDefinition struct {
	Name        string   `yaml:"-" json:"name"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Rank        int      `yaml:"rank" json:"rank"`
	Inherits    []string `yaml:"inherits" json:"inherits,omitempty"`
	Actions     []string `yaml:"actions" json:"actions"`
}

// policyFile mirrors config/roles.yaml
type policyFile struct {
	Roles map[string]*RoleDefinition `yaml:"roles"`
}
