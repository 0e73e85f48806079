package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/keybind/internal/client/client"
)

const clientType = "licensectl"

func (a *App) authenticate(ctx context.Context, args []string) error {
	key, rest := licenseKeyArg(args)

	fs := flag.NewFlagSet("authenticate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	hw := fs.String("hwid", "", "hardware id (default: this machine)")
	version := fs.String("version", "", "client version")
	ctype := fs.String("type", clientType, "client type")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if key == "" {
		key = fs.Arg(0)
	}
	if key == "" {
		return fmt.Errorf("%w: authenticate <key>", ErrUsage)
	}

	if *hw == "" {
		fp, err := a.fingerprint()
		if err != nil {
			return err
		}
		*hw = fp
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.api.Authenticate(ctx, client.AuthRequest{
		LicenseKey:    key,
		HWID:          *hw,
		ClientVersion: *version,
		ClientType:    *ctype,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		fmt.Fprintf(a.out, "%s: %s\n", res.Reason, res.Message)
		return fmt.Errorf("%w: %s", ErrRejected, res.Reason)
	}

	fmt.Fprintf(a.out, "%s\nLicensed to %s until %s\n", res.Message, res.UserName, res.ExpiresAt.Format(time.DateOnly))
	return nil
}

func (a *App) check(ctx context.Context, args []string) error {
	key, _ := licenseKeyArg(args)
	if key == "" {
		return fmt.Errorf("%w: check <key>", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	l, err := a.api.CheckLicense(ctx, key)
	if err != nil {
		return err
	}

	printLicense(a.out, l)
	return nil
}

func printLicense(w io.Writer, l *client.License) {
	fmt.Fprintf(w, "License:    %s\n", l.LicenseKey)
	fmt.Fprintf(w, "Status:     %s\n", l.Status)
	fmt.Fprintf(w, "User:       %s <%s>\n", l.UserName, l.UserEmail)
	fmt.Fprintf(w, "Created:    %s\n", l.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Expires:    %s\n", l.ExpiresAt.Format(time.RFC3339))
	if l.BoundHWID != "" {
		fmt.Fprintf(w, "HWID:       %s\n", l.BoundHWID)
	}
	if l.FirstUsedAt != nil {
		fmt.Fprintf(w, "First used: %s\n", l.FirstUsedAt.Format(time.RFC3339))
	}
	if l.LastUsedAt != nil {
		fmt.Fprintf(w, "Last used:  %s\n", l.LastUsedAt.Format(time.RFC3339))
	}
}

func (a *App) ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}
