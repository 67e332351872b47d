package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// DemoUser is a plaintext account used to populate development stores.
type DemoUser struct {
	Email    string
	Password string
}

// DemoUsers are the accounts documented for the sign-in endpoint.
var DemoUsers = []DemoUser{
	{Email: "user1@example.com", Password: "password11"},
	{Email: "user2@example.com", Password: "password22"},
	{Email: "user3@example.com", Password: "password33"},
}

// DemoUserID derives a stable user id from an email so that reseeding a
// persistent store yields the same ids.
func DemoUserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("keyvault:"+NormalizeEmail(email))).String()
}

// Seed creates the given users, skipping the ones that already exist.
// It returns the number of users created.
func Seed(ctx context.Context, repo Repository, users []DemoUser, hash func(string) (string, error)) (int, error) {
	created := 0
	for _, u := range users {
		h, err := hash(u.Password)
		if err != nil {
			return created, fmt.Errorf("hashing password for %s: %w", u.Email, err)
		}

		err = repo.Create(ctx, &models.Credential{
			UserID:       DemoUserID(u.Email),
			Email:        u.Email,
			PasswordHash: h,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seeding %s: %w", u.Email, err)
		}
		created++
	}
	return created, nil
}
