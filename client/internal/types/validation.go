package types

import (
	"fmt"
	"slices"
)

// ------------------------------
// Status enums
// ------------------------------

// Status values accepted by the backend filters, in display order.
var (
	VehicleStatuses  = []string{"available", "leased", "in_service", "reserved", "retired"}
	OfferStatuses    = []string{"draft", "active", "expired", "archived"}
	ContractStatuses = []string{"pending", "active", "completed", "terminated"}
	UserRoles        = []string{"admin", "manager", "sales", "viewer"}
)

// ------------------------------
// Validation helpers
// ------------------------------

// ValidateID rejects non-positive primary keys before they are put in a path.
func ValidateID(id int64, field string) error {
	if id <= 0 {
		return fmt.Errorf("%s must be a positive integer, got %d", field, id)
	}
	return nil
}

// ValidateStatus checks value against allowed. The empty string is accepted
// and means "no constraint".
func ValidateStatus(value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid status %q (allowed: %v)", value, allowed)
}
