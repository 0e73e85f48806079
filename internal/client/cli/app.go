package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/keybind/internal/client/client"
	"github.com/dmitrijs2005/keybind/internal/client/config"
	"github.com/dmitrijs2005/keybind/internal/client/hwid"
	"github.com/dmitrijs2005/keybind/internal/filex"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage error")

// ErrRejected is returned when the server refuses an authentication.
var ErrRejected = errors.New("authentication rejected")

type App struct {
	config      *config.Config
	api         client.Client
	fingerprint func() (string, error)
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewLicenseClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	token := c.AdminToken
	if token == "" {
		token, err = filex.ReadTrimmed(c.TokenFile)
		if err != nil {
			return nil, err
		}
	}
	apiClient.SetAdminToken(token)

	return newApp(c, apiClient), nil
}

func newApp(c *config.Config, api client.Client) *App {
	return &App{
		config:      c,
		api:         api,
		fingerprint: hwid.Fingerprint,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

func (a *App) Close() error {
	return a.api.Close()
}

// Run executes one command.
func (a *App) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "authenticate", "auth":
		return a.authenticate(ctx, args)
	case "check":
		return a.check(ctx, args)
	case "login":
		return a.login(ctx)
	case "issue":
		return a.issue(ctx, args)
	case "revoke":
		return a.revoke(ctx, args)
	case "unbind":
		return a.unbind(ctx, args)
	case "attempts":
		return a.attempts(ctx, args)
	case "hwid":
		return a.printHWID()
	case "hash-password":
		return a.hashPassword()
	case "ping":
		return a.ping(ctx)
	case "", "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `Usage: licensectl [-a addr] [-t seconds] [-k token] [-f token-file] [-c config.json] <command> [args]

Commands:
  authenticate <key> [-hwid H] [-version V] [-type T]   validate a license for this machine
  check <key>                                           show a license
  login                                                 obtain an admin token
  issue -name N -email E [-days D]                      issue a new license (admin)
  revoke <key>                                          revoke a license (admin)
  unbind <key>                                          clear a device binding (admin)
  attempts <key> [-limit N]                             show recent authentication attempts (admin)
  hwid                                                  print this machine's hardware id
  hash-password                                         print a bcrypt hash for the server config
  ping                                                  check the server is reachable`)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// licenseKeyArg pulls a leading positional license key out of args so flags
// may follow it ("authenticate KEY -hwid X").
func licenseKeyArg(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}
	return "", args
}
