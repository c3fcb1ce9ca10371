package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/grievance/internal/models"
)

func TestDefaultEscalationPolicy_Valid(t *testing.T) {
	require.NoError(t, DefaultEscalationPolicy().Validate())
}

func TestEscalationPolicy_CanAssign(t *testing.T) {
	policy := DefaultEscalationPolicy()

	tests := []struct {
		category string
		role     string
		expected bool
	}{
		{models.CategoryAcademic, models.RoleDepartmentHead, true},
		{models.CategoryAcademic, models.RoleDormitoryService, false},
		{models.CategoryAdministrative, models.RoleFoodService, true},
		{models.CategoryAdministrative, models.RolePresident, false},
		{"unknown", models.RoleDepartmentHead, false},
	}

	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.CanAssign(tt.category, tt.role))
		})
	}
}

func TestEscalationPolicy_EscalationTarget(t *testing.T) {
	policy := DefaultEscalationPolicy()

	target, ok := policy.EscalationTarget(models.RoleDepartmentHead, "")
	assert.True(t, ok)
	assert.Equal(t, models.RoleCollegeDean, target)

	_, ok = policy.EscalationTarget(models.RoleDepartmentHead, models.RolePresident)
	assert.False(t, ok)

	target, ok = policy.EscalationTarget(models.RoleAcademicVP, models.RolePresident)
	assert.True(t, ok)
	assert.Equal(t, models.RolePresident, target)

	_, ok = policy.EscalationTarget(models.RolePresident, "")
	assert.False(t, ok, "the top of the chain cannot escalate")
}

func TestParseEscalationPolicy_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed", yaml: "assignable_roles: [oops"},
		{name: "empty", yaml: ""},
		{name: "unknown category", yaml: "assignable_roles:\n  sports: [registrar]\n"},
		{name: "non escalation role", yaml: "assignable_roles:\n  academic: [handler]\n"},
		{name: "self escalation", yaml: "assignable_roles:\n  academic: [registrar]\nescalation_paths:\n  registrar: [registrar]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEscalationPolicy([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
