package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keybind/internal/cryptox"
	"github.com/dmitrijs2005/keybind/internal/server/auth"
)

func (a *App) printHWID() error {
	fp, err := a.fingerprint()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, fp)
	return nil
}

// hashPassword prints the bcrypt hash to put into the server's
// admin_password_hash setting.
func (a *App) hashPassword() error {
	password, err := GetPassword(a.out, "New admin password: ")
	if err != nil {
		return err
	}
	defer cryptox.WipeByteArray(password)

	confirm, err := GetPassword(a.out, "Repeat password: ")
	if err != nil {
		return err
	}
	defer cryptox.WipeByteArray(confirm)

	if len(password) == 0 {
		return errors.New("password must not be empty")
	}
	if string(password) != string(confirm) {
		return errors.New("passwords do not match")
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hash)
	return nil
}
