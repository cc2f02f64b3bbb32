package domain

import "time"

// StaffProfile holds staff-specific data for an Account of role STAFF.
type StaffProfile struct {
	ID        string
	AccountID string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffMember is a staff profile joined with its owning account.
type StaffMember struct {
	Profile StaffProfile
	Account AccountSummary
}
