package domain

import "time"

// Gender enumerates accepted customer gender values.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether g is one of the enumerated values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// CustomerProfile holds customer-specific data for an Account of role CUSTOMER.
// Trips reference the profile ID, not the account ID.
type CustomerProfile struct {
	ID        string
	AccountID string
	Phone     string
	Gender    Gender
	Age       int
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer is a customer profile joined with its owning account.
type Customer struct {
	Profile CustomerProfile
	Account AccountSummary
}
