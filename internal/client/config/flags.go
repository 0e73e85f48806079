package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/keybind/internal/flagx"
)

// parseFlags populates selected Config fields from the global flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the keybind gRPC endpoint
//	-t int      request timeout in seconds
//	-k string   admin token
//	-f string   file the admin token is saved to by "login"
//
// Only the flags before the command name are considered, so command flags
// such as "issue -name" never reach this flag set.
func parseFlags(cfg *Config) {
	globals, _, _ := flagx.SplitCommand(os.Args[1:], GlobalValueFlags)
	args := flagx.FilterArgs(globals, []string{"-a", "-t", "-k", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.AdminToken, "k", cfg.AdminToken, "admin token")
	fs.StringVar(&cfg.TokenFile, "f", cfg.TokenFile, "admin token file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["t"] {
		cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	}
}
