package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keyvault/internal/client/client"
	"github.com/dmitrijs2005/keyvault/internal/common"
)

// getPassword is swapped in tests.
var getPassword = GetPassword

func (a *App) Login(ctx context.Context) error {
	email := a.email
	if email == "" {
		var err error
		email, err = GetSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.service.SignIn(ctx, email, string(password)); err != nil {
		return err
	}
	a.email = email
	fmt.Fprintln(a.out, "Signed in as", email)
	return nil
}

func (a *App) Logout() {
	a.service.SignOut()
	fmt.Fprintln(a.out, "Signed out")
}

func (a *App) printKeyPair(kp client.KeyPair) {
	fmt.Fprintf(a.out, "Algorithm:   %s\n", kp.Algorithm)
	fmt.Fprintf(a.out, "Fingerprint: %s\n", kp.Fingerprint)
	fmt.Fprintf(a.out, "Created:     %s\n", kp.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprint(a.out, kp.PublicKeyPEM)
}

func (a *App) KeyPair(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	kp, created, err := a.service.GenerateKeyPair(ctx)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(a.out, "Key pair created")
	} else {
		fmt.Fprintln(a.out, "Key pair already exists")
	}
	a.printKeyPair(kp)
	return nil
}

func (a *App) PublicKey(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	kp, err := a.service.PublicKey(ctx)
	if err != nil {
		return err
	}
	a.printKeyPair(kp)
	return nil
}

func (a *App) Encrypt(ctx context.Context, text string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	ct, err := a.service.Encrypt(ctx, []byte(text))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, base64.StdEncoding.EncodeToString(ct))
	return nil
}

func (a *App) Decrypt(ctx context.Context, encoded string) error {
	ct, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("ciphertext is not base64: %w", err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	pt, err := a.service.Decrypt(ctx, ct)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pt)
	fmt.Fprintln(a.out, string(pt))
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.service.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

// describe turns a command error into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrNotSignedIn):
		return "Not signed in, use 'login' first"
	case errors.Is(err, common.ErrTokenExpired):
		return "Session expired, use 'login' again"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, common.ErrTooManyAttempts):
		return "Too many attempts, try again later"
	case errors.Is(err, common.ErrNoKeyPair):
		return "No key pair yet, use 'keypair' first"
	case errors.Is(err, common.ErrPayloadTooLarge):
		return "Text is too long for one RSA block"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable"
	}
	return "Error: " + err.Error()
}
