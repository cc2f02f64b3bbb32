package domain

// Identity is the verified caller decoded from a bearer token.
// The zero value is an anonymous caller.
type Identity struct {
	SubjectID string
	Role      Role
}

// Anonymous reports whether no verified subject is attached.
func (i Identity) Anonymous() bool {
	return i.SubjectID == ""
}
