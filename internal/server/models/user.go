// Package models defines the server-side data model shared by repositories
// and services.
package models

// UserIdentity is the resolved, immutable identity of an authenticated user.
type UserIdentity struct {
	ID    string
	Email string
}

// Credential is the stored proof material for a user. PasswordHash is an
// argon2id (PHC format) or bcrypt hash, never a plaintext password.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
}

// Identity returns the identity the credential proves.
func (c *Credential) Identity() UserIdentity {
	return UserIdentity{ID: c.UserID, Email: c.Email}
}
