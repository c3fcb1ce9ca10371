package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/BradenHooton/grievance/internal/models"
)

// EscalationPolicy decides where handlers may assign complaints and where each escalation
// role may pass them on.
type EscalationPolicy struct {
	// AssignableRoles maps a complaint category to the roles a handler may assign it to.
	AssignableRoles map[string][]string `yaml:"assignable_roles"`
	// EscalationPaths maps an escalation role to the roles it may escalate to.
	EscalationPaths map[string][]string `yaml:"escalation_paths"`
}

// DefaultEscalationPolicy mirrors the university's organisational chart.
func DefaultEscalationPolicy() *EscalationPolicy {
	return &EscalationPolicy{
		AssignableRoles: map[string][]string{
			models.CategoryAcademic: {
				models.RoleDepartmentHead,
				models.RoleCollegeDean,
				models.RoleRegistrar,
				models.RoleLibraryService,
			},
			models.CategoryAdministrative: {
				models.RoleStudentServiceDirectorate,
				models.RoleDormitoryService,
				models.RoleFoodService,
				models.RoleLibraryService,
				models.RoleRegistrar,
			},
		},
		EscalationPaths: map[string][]string{
			models.RoleDepartmentHead:            {models.RoleCollegeDean},
			models.RoleCollegeDean:               {models.RoleAcademicVP},
			models.RoleRegistrar:                 {models.RoleAcademicVP},
			models.RoleLibraryService:            {models.RoleAcademicVP},
			models.RoleAcademicVP:                {models.RolePresident},
			models.RoleDormitoryService:          {models.RoleStudentServiceDirectorate},
			models.RoleFoodService:               {models.RoleStudentServiceDirectorate},
			models.RoleStudentServiceDirectorate: {models.RoleAdministrativeVP},
			models.RoleAdministrativeVP:          {models.RolePresident},
		},
	}
}

// LoadEscalationPolicy reads the policy from a YAML file, or returns the default when path is empty.
func LoadEscalationPolicy(path string) (*EscalationPolicy, error) {
	if path == "" {
		return DefaultEscalationPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read escalation policy: %w", err)
	}

	return ParseEscalationPolicy(data)
}

// ParseEscalationPolicy decodes and validates a YAML policy document.
func ParseEscalationPolicy(data []byte) (*EscalationPolicy, error) {
	var policy EscalationPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse escalation policy: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Validate checks every referenced category and role exists.
func (p *EscalationPolicy) Validate() error {
	if len(p.AssignableRoles) == 0 {
		return fmt.Errorf("escalation policy: assignable_roles is empty")
	}

	for category, roles := range p.AssignableRoles {
		if category != models.CategoryAcademic && category != models.CategoryAdministrative {
			return fmt.Errorf("escalation policy: unknown category %q", category)
		}
		for _, role := range roles {
			if !models.IsEscalationRole(role) {
				return fmt.Errorf("escalation policy: %q is not an escalation role", role)
			}
		}
	}

	for from, targets := range p.EscalationPaths {
		if !models.IsEscalationRole(from) {
			return fmt.Errorf("escalation policy: %q is not an escalation role", from)
		}
		for _, to := range targets {
			if !models.IsEscalationRole(to) || to == from {
				return fmt.Errorf("escalation policy: invalid escalation %q -> %q", from, to)
			}
		}
	}

	return nil
}

// CanAssign reports whether a complaint in category may be assigned to role.
func (p *EscalationPolicy) CanAssign(category, role string) bool {
	return slices.Contains(p.AssignableRoles[category], role)
}

// EscalationTarget resolves the role an escalation from fromRole goes to. An empty
// requested role picks the first configured target.
func (p *EscalationPolicy) EscalationTarget(fromRole, requested string) (string, bool) {
	targets := p.EscalationPaths[fromRole]
	if len(targets) == 0 {
		return "", false
	}
	if requested == "" {
		return targets[0], true
	}
	return requested, slices.Contains(targets, requested)
}
