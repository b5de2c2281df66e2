package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Plans(ctx context.Context) error
	NewPlan(ctx context.Context) error
	ArchivePlan(ctx context.Context) error
	RestorePlan(ctx context.Context) error
	Exercises(ctx context.Context) error
	Start(ctx context.Context) error
	Log(ctx context.Context) error
	Finish(ctx context.Context) error
	History(ctx context.Context) error
	Show(ctx context.Context) error
	Sync(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the TrainTrack CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - plans          — list routines
//	  - newplan        — create a routine
//	  - archive        — soft-delete a routine
//	  - restore        — undo a soft delete
//	  - exercises      — list the exercise catalog
//	  - start          — begin a training session
//	  - log            — record a set in the current session
//	  - finish         — complete the current session
//	  - history        — list recent sessions
//	  - show           — show one session with its sets
//	  - sync           — push pending changes now
//	  - logout         — flush, log out and wipe local data
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tt> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: plans, newplan, archive, restore, exercises, start, log, finish, (h)istory, show, sync, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "plans":
			_ = a.Plans(ctx)

		case "newplan":
			_ = a.NewPlan(ctx)

		case "archive":
			_ = a.ArchivePlan(ctx)

		case "restore":
			_ = a.RestorePlan(ctx)

		case "exercises":
			_ = a.Exercises(ctx)

		case "start":
			_ = a.Start(ctx)

		case "log":
			_ = a.Log(ctx)

		case "finish":
			_ = a.Finish(ctx)

		case "h", "history":
			_ = a.History(ctx)

		case "show":
			_ = a.Show(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
