package auth

import "finlit-api/models"

// Access levels are explicit enumerated role sets, not a rank
// comparison. The hierarchy is additive: student-level endpoints
// accept everyone, instructor-level endpoints accept instructors and
// admins but NOT students, admin endpoints accept only admins.
var (
	StudentLevel    = []models.Role{models.RoleStudent, models.RoleInstructor, models.RoleAdmin}
	InstructorLevel = []models.Role{models.RoleInstructor, models.RoleAdmin}
	AdminOnly       = []models.Role{models.RoleAdmin}
)

// RoleAllowed reports whether role is a member of the allowed set.
func RoleAllowed(role models.Role, allowed []models.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
