package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{name: "user", role: RoleUser, expected: true},
		{name: "handler", role: RoleHandler, expected: true},
		{name: "admin", role: RoleAdmin, expected: true},
		{name: "department head", role: RoleDepartmentHead, expected: true},
		{name: "service unit", role: RoleDormitoryService, expected: true},
		{name: "unknown", role: "superuser", expected: false},
		{name: "empty", role: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestIsEscalationRole(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{role: RoleDepartmentHead, expected: true},
		{role: RolePresident, expected: true},
		{role: RoleLibraryService, expected: true},
		{role: RoleHandler, expected: false},
		{role: RoleAdmin, expected: false},
		{role: RoleUser, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsEscalationRole(tt.role); got != tt.expected {
				t.Errorf("IsEscalationRole(%q) = %v, want %v", tt.role, got, tt.expected)
			}
		})
	}
}

func TestValidateOrgUnit(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		college    string
		department string
		wantErr    bool
	}{
		{name: "department head complete", role: RoleDepartmentHead, college: "Engineering", department: "Civil"},
		{name: "department head missing department", role: RoleDepartmentHead, college: "Engineering", wantErr: true},
		{name: "department head missing college", role: RoleDepartmentHead, department: "Civil", wantErr: true},
		{name: "dean with college", role: RoleCollegeDean, college: "Engineering"},
		{name: "dean with department", role: RoleCollegeDean, college: "Engineering", department: "Civil", wantErr: true},
		{name: "dean without college", role: RoleCollegeDean, wantErr: true},
		{name: "user without org", role: RoleUser},
		{name: "user with full org", role: RoleUser, college: "Science", department: "Physics"},
		{name: "user with department only", role: RoleUser, department: "Physics", wantErr: true},
		{name: "service unit without org", role: RoleFoodService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrgUnit(tt.role, tt.college, tt.department)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOrgUnit(%q, %q, %q) error = %v, wantErr %v", tt.role, tt.college, tt.department, err, tt.wantErr)
			}
		})
	}
}

func TestInScope(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		uCollege string
		uDept    string
		college  string
		dept     string
		expected bool
	}{
		{name: "head same department", role: RoleDepartmentHead, uCollege: "Eng", uDept: "Civil", college: "Eng", dept: "Civil", expected: true},
		{name: "head other department", role: RoleDepartmentHead, uCollege: "Eng", uDept: "Civil", college: "Eng", dept: "Mech", expected: false},
		{name: "dean same college", role: RoleCollegeDean, uCollege: "Eng", college: "Eng", dept: "Mech", expected: true},
		{name: "dean other college", role: RoleCollegeDean, uCollege: "Eng", college: "Sci", dept: "Physics", expected: false},
		{name: "president unscoped", role: RolePresident, college: "Sci", dept: "Physics", expected: true},
		{name: "service unit unscoped", role: RoleDormitoryService, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InScope(tt.role, tt.uCollege, tt.uDept, tt.college, tt.dept)
			if got != tt.expected {
				t.Errorf("InScope() = %v, want %v", got, tt.expected)
			}
		})
	}
}
