package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root starts the background sync loops and runs the interactive REPL
// until the user exits. A stored session (valid token from a previous
// run) is restored automatically.
func (a *App) Root(ctx context.Context) {

	printlnFn("Welcome to TrainTrack CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.restoreSession(ctx)

	a.lifecycle.Start(ctx)
	defer a.lifecycle.Stop()

	runREPL(ctx, a, a.getStatus, scanner)
}

// restoreSession picks up a stored token from a previous run, so the user
// is not asked for credentials on every start.
func (a *App) restoreSession(ctx context.Context) {
	ok, err := a.auth.IsAuthenticated(ctx)
	if err != nil || !ok {
		return
	}
	userName := "user"
	if p, err := a.auth.Profile(ctx); err == nil && p != nil {
		userName = p.Email
	}
	a.userName = userName
	printlnFn("Restored previous session")

	if err := a.lifecycle.OnLogin(ctx); err != nil {
		a.log.Warn(ctx, "bootstrap failed on session restore", "error", err)
		a.setMode(ModeOffline)
	}
}
