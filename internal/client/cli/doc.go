// Package cli provides the interactive TrainTrack command-line client.
//
// It wires configuration, local storage, API services, and an interactive REPL
// that supports online/offline operation. Typical flow: prompt for credentials,
// start the background sync and connectivity loops, and execute user commands.
//
// Key features:
//   - Login / Logout with offline session restore
//   - Plan management: list, create, archive, restore
//   - Training sessions: start, log sets, finish
//   - History browsing and manual sync
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
