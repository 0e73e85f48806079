package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/cryptox"
	"github.com/dmitrijs2005/keybind/internal/filex"
)

func (a *App) login(ctx context.Context) error {
	password, err := GetPassword(a.out, "Admin password: ")
	if err != nil {
		return err
	}
	defer cryptox.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	token, expiresAt, err := a.api.AdminLogin(ctx, string(password))
	if err != nil {
		return err
	}

	if err := filex.WriteSecret(a.config.TokenFile, []byte(token+"\n")); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in, token saved to %s (valid until %s)\n", a.config.TokenFile, expiresAt.Local().Format(time.RFC3339))
	return nil
}

func (a *App) issue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "license holder name")
	email := fs.String("email", "", "license holder email")
	days := fs.Int("days", common.DefaultExpiryDays, "validity in days")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *days <= 0 {
		return fmt.Errorf("%w: -days must be positive", ErrUsage)
	}

	var err error
	if *name == "" {
		if *name, err = GetSimpleText(a.reader, "Name", a.out); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	l, err := a.api.IssueLicense(ctx, *name, *email, *days)
	if err != nil {
		return err
	}

	printLicense(a.out, l)
	return nil
}

func (a *App) revoke(ctx context.Context, args []string) error {
	key, _ := licenseKeyArg(args)
	if key == "" {
		return fmt.Errorf("%w: revoke <key>", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.RevokeLicense(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "License %s revoked\n", key)
	return nil
}

func (a *App) unbind(ctx context.Context, args []string) error {
	key, _ := licenseKeyArg(args)
	if key == "" {
		return fmt.Errorf("%w: unbind <key>", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	previous, err := a.api.UnbindLicense(ctx, key)
	if err != nil {
		return err
	}
	if previous == "" {
		fmt.Fprintf(a.out, "License %s was not bound\n", key)
		return nil
	}
	fmt.Fprintf(a.out, "License %s unbound from %s\n", key, previous)
	return nil
}

func (a *App) attempts(ctx context.Context, args []string) error {
	key, rest := licenseKeyArg(args)
	fs := flag.NewFlagSet("attempts", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 0, "number of attempts to show (server default when 0)")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if key == "" {
		return fmt.Errorf("%w: attempts <key> [-limit N]", ErrUsage)
	}
	if *limit < 0 {
		return fmt.Errorf("%w: -limit must not be negative", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.api.ListAttempts(ctx, key, *limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(a.out, "No authentication attempts recorded for %s\n", key)
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tHWID\tVERSION\tTYPE\tADDRESS")
	for _, at := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			at.CreatedAt.Local().Format(time.RFC3339), at.Outcome, at.HWID,
			dash(at.ClientVersion), dash(at.ClientType), dash(at.RemoteAddr))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
