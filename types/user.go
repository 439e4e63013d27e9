package types

// User represents an account in the system.
type User struct {
	// ID is the store-assigned identifier. It never changes once assigned.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across all users.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`
}

// UserPatch describes a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}

// Identity is the authenticated caller carried by a bearer token.
type Identity struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}
