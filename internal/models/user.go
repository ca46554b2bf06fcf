// Package models holds the plain data snapshots returned by the storage
// backends. Values are copies: mutating them never touches persisted state.
package models

// DefaultAvatar is assigned to registered users created without an avatar.
const DefaultAvatar = "avatar_default.png"

// User is a full user record.
//
// Password holds the bcrypt hash, never the plaintext. An empty Password
// marks a public user.
type User struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Movies   []Movie `json:"movies"`
	Password string  `json:"password,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
}

// IsPublic reports whether the user has no stored credential.
func (u *User) IsPublic() bool {
	return u.Password == ""
}

// UserSummary is the listing form of a user.
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewUser carries the arguments of AddUser. Empty Password and Avatar mean
// "not supplied".
type NewUser struct {
	Name     string
	Password string
	Avatar   string
}
