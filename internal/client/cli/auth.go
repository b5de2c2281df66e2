package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to
// create a new account. Registration also signs the user in, so on
// success the full login sequence (bootstrap plus initial sync) runs.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, userName, password); err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn("Success!")
	return a.afterLogin(ctx, userName)
}

// Login prompts the user for credentials and tries to authenticate.
//
// When the server is unreachable, a previously stored (and still valid)
// token lets the session continue in offline mode; a full bootstrap then
// happens on the next successful connection.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, userName, password); err != nil {
		if errors.Is(err, api.ErrOffline) {
			ok, aerr := a.auth.IsAuthenticated(ctx)
			if aerr == nil && ok {
				printlnFn("Server unavailable, continuing with the stored session")
				a.userName = userName
				a.setMode(ModeOffline)
				return nil
			}
			printlnFn("Server unavailable and no stored session, try again later")
			return err
		}
		printlnFn("Login failed:", err.Error())
		return err
	}

	printlnFn("Login successful")
	return a.afterLogin(ctx, userName)
}

// afterLogin runs the post-authentication sequence: bootstrap refresh,
// initial sync pass, prompt state.
func (a *App) afterLogin(ctx context.Context, userName string) error {
	a.userName = userName
	a.setMode(ModeOnline)
	a.currentActivity = 0

	if err := a.lifecycle.OnLogin(ctx); err != nil {
		printlnFn("Warning: initial data refresh failed:", err.Error())
		a.log.Warn(ctx, "bootstrap failed after login", "error", err)
	}
	return nil
}

// Logout flushes pending changes (best effort), clears the token and
// wipes the local store.
func (a *App) Logout(ctx context.Context) error {
	if err := a.lifecycle.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	a.userName = ""
	a.currentActivity = 0
	printlnFn("Logged out")
	return nil
}
