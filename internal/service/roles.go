package service

import "github.com/Skotchmaster/stayfinder/internal/models"

// RequireManager rejects actors that may not change roles at all.
func RequireManager(actor string) error {
	if actor != models.RoleManager {
		return fail(ErrForbidden, "UNAUTHORIZED", "Only managers can change user roles")
	}
	return nil
}

// CheckRoleTransition reports whether actor may move a user from one role to another.
// Only managers change roles, and only between renter and admin.
func CheckRoleTransition(actor, from, to string) error {
	if err := RequireManager(actor); err != nil {
		return err
	}
	if to == "" {
		return invalid("MISSING_ROLE", "Role is required")
	}
	if !models.IsRole(to) {
		return invalid("INVALID_ROLE", "Role must be renter, admin or manager")
	}
	if from == to {
		return invalid("NO_CHANGE", "User already has this role")
	}
	if from == models.RoleManager {
		return invalid("INVALID_TRANSITION", "Manager role cannot be changed")
	}
	if to == models.RoleManager {
		return invalid("INVALID_TRANSITION", "Users cannot be promoted to manager")
	}
	return nil
}
