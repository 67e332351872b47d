package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/client/client"
	"github.com/dmitrijs2005/keyvault/internal/client/config"
)

// Service is the server API the REPL drives. *client.GRPCClient
// satisfies it.
type Service interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut()
	SignedIn() bool
	GenerateKeyPair(ctx context.Context) (client.KeyPair, bool, error)
	PublicKey(ctx context.Context) (client.KeyPair, error)
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	config  *config.Config
	service Service
	reader  *bufio.Reader
	out     io.Writer
	email   string
}

func NewApp(c *config.Config) (*App, error) {
	svc, err := client.NewKeyVaultClient(c.ServerAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, svc, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, svc Service, in io.Reader, out io.Writer) *App {
	return &App{config: c, service: svc, reader: bufio.NewReader(in), out: out, email: c.Email}
}

// Run starts the REPL and closes the connection when it ends.
func (a *App) Run(ctx context.Context) error {
	defer a.service.Close()
	return a.repl(ctx)
}

func (a *App) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := a.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
