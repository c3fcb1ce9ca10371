package models

// Role constants define every account role in the system
const (
	RoleUser    = "user"
	RoleHandler = "handler"
	RoleAdmin   = "admin"

	// Academic escalation chain
	RoleDepartmentHead = "department_head"
	RoleCollegeDean    = "college_dean"
	RoleAcademicVP     = "academic_vp"
	RolePresident      = "president"

	// Administrative escalation chain and service units
	RoleAdministrativeVP          = "administrative_vp"
	RoleStudentServiceDirectorate = "student_service_directorate"
	RoleDormitoryService          = "dormitory_service"
	RoleFoodService               = "food_service"
	RoleLibraryService            = "library_service"
	RoleRegistrar                 = "registrar"
)

// AllRoles is the whitelist of assignable roles
var AllRoles = map[string]bool{
	RoleUser:                      true,
	RoleHandler:                   true,
	RoleAdmin:                     true,
	RoleDepartmentHead:            true,
	RoleCollegeDean:               true,
	RoleAcademicVP:                true,
	RolePresident:                 true,
	RoleAdministrativeVP:          true,
	RoleStudentServiceDirectorate: true,
	RoleDormitoryService:          true,
	RoleFoodService:               true,
	RoleLibraryService:            true,
	RoleRegistrar:                 true,
}

// EscalationRoles are the roles that receive assignments and escalations.
var EscalationRoles = map[string]bool{
	RoleDepartmentHead:            true,
	RoleCollegeDean:               true,
	RoleAcademicVP:                true,
	RolePresident:                 true,
	RoleAdministrativeVP:          true,
	RoleStudentServiceDirectorate: true,
	RoleDormitoryService:          true,
	RoleFoodService:               true,
	RoleLibraryService:            true,
	RoleRegistrar:                 true,
}

// IsValidRole checks if a role exists in the whitelist
func IsValidRole(role string) bool {
	return AllRoles[role]
}

// IsEscalationRole reports whether the role works an escalation inbox.
func IsEscalationRole(role string) bool {
	return EscalationRoles[role]
}

// ValidateOrgUnit enforces the college/department combination each role requires.
// department_head needs both, college_dean needs a college and no department.
func ValidateOrgUnit(role, college, department string) error {
	switch role {
	case RoleDepartmentHead:
		if college == "" || department == "" {
			return ErrBadRequest
		}
	case RoleCollegeDean:
		if college == "" || department != "" {
			return ErrBadRequest
		}
	default:
		if department != "" && college == "" {
			return ErrBadRequest
		}
	}
	return nil
}

// InScope reports whether a staff member with the given role and org unit may act on an
// escalation carrying the given org snapshot.
func InScope(role, userCollege, userDepartment, college, department string) bool {
	switch role {
	case RoleDepartmentHead:
		return userCollege == college && userDepartment == department
	case RoleCollegeDean:
		return userCollege == college
	default:
		return true
	}
}
