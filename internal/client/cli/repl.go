package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const helpText = `Available commands:
  login, logout, keypair, pubkey, encrypt <text>, decrypt <base64>, ping, help, exit`

func (a *App) prompt() string {
	if a.service.SignedIn() {
		return fmt.Sprintf("keyvault (%s)> ", a.email)
	}
	return "keyvault> "
}

// repl reads commands until EOF or exit.
func (a *App) repl(ctx context.Context) error {
	fmt.Fprintln(a.out, "KeyVault CLI (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, a.prompt())

		line, err := a.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		if quit := a.dispatch(ctx, strings.TrimSpace(line)); quit || eof {
			return nil
		}
	}
}

// dispatch runs one command line and reports whether to quit.
func (a *App) dispatch(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch cmd {
	case "":
		return false
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "login":
		err = a.Login(ctx)
	case "logout":
		a.Logout()
	case "keypair":
		err = a.KeyPair(ctx)
	case "pubkey":
		err = a.PublicKey(ctx)
	case "encrypt":
		if rest == "" {
			fmt.Fprintln(a.out, "Usage: encrypt <text>")
			return false
		}
		err = a.Encrypt(ctx, rest)
	case "decrypt":
		if rest == "" {
			fmt.Fprintln(a.out, "Usage: decrypt <base64>")
			return false
		}
		err = a.Decrypt(ctx, rest)
	case "ping":
		err = a.Ping(ctx)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}

	if err != nil {
		fmt.Fprintln(a.out, describe(err))
	}
	return false
}
