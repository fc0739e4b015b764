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
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Add(ctx context.Context) error
	AddPhoto(ctx context.Context) error
	Remind(ctx context.Context) error
	Delete(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the glowlog CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current identity (from statusFn) and accepts:
//
//	  - help           — show available commands
//	  - register       — create an account (migrates guest records)
//	  - login          — sign in (migrates guest records)
//	  - logout         — drop the session and start a fresh guest journal
//	  - (l)ist         — list procedure records
//	  - show           — show a single record (interactive ID prompt)
//	  - add            — log a procedure
//	  - addphoto       — attach a before/after photo to a record
//	  - remind         — set a maintenance reminder on a record
//	  - delete         — delete a record with its photos and reminder
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("glow> %s > ", statusFn()))
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
				printlnFn("Available commands: (l)ist, show, add, addphoto, remind, delete, logout, exit")
			} else {
				printlnFn("Available commands: (l)ist, show, add, addphoto, remind, delete, register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "add":
			_ = a.Add(ctx)

		case "addphoto":
			_ = a.AddPhoto(ctx)

		case "remind":
			_ = a.Remind(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
