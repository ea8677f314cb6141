package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/memora/internal/client/auth"
	"github.com/dmitrijs2005/memora/internal/client/client"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Navigate(r auth.Route) bool
	Status() string
	Help() string
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context, code string) error
	Abandon(ctx context.Context) error
	Logout(ctx context.Context) error
	Photos(ctx context.Context) error
	Upload(ctx context.Context, path, note string) error
	Retry(ctx context.Context) error
	Discard(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Analyze(ctx context.Context, mediaURL string) error
}

// commandRoutes maps commands to the screen they open. The gate is consulted
// before the command runs.
var commandRoutes = map[string]auth.Route{
	"signup":  auth.RouteSignup,
	"login":   auth.RouteLogin,
	"verify":  auth.RouteTwoFactor,
	"abandon": auth.RouteTwoFactor,
	"logout":  auth.RouteHome,
	"analyze": auth.RouteHome,
	"photos":  auth.RouteGallery,
	"upload":  auth.RouteGallery,
	"retry":   auth.RouteGallery,
	"discard": auth.RouteGallery,
	"search":  auth.RouteSearch,
}

// runREPL starts a simple read-eval-print loop for the Memora CLI.
//
// It reads a line from reader, parses the first token as the command, asks
// the gate whether the command's route may be shown and, if so, dispatches
// to a. Errors are printed as user messages and the loop continues. The loop
// exits on EOF or when the user types "exit" or "quit".
//
// Commands
//
//	help                    show available commands
//	status                  show the authentication state
//	signup | login          authenticate
//	verify [code]           submit the two-factor code
//	abandon                 give up the pending two-factor challenge
//	photos                  refresh and list the gallery
//	upload <path> [note]    upload a photo
//	retry                   retry the last failed upload
//	discard                 drop the failed upload instead of retrying
//	search [query]          search the gallery; no query lists everything
//	analyze <url>           classify media as AI-generated or human
//	logout                  sign out
//	exit | quit             leave the program
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "memora %s> ", a.Status())
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		if route, ok := commandRoutes[cmd]; ok && !a.Navigate(route) {
			continue
		}

		switch cmd {
		case "help":
			fmt.Fprintln(w, a.Help())
		case "status":
			fmt.Fprintln(w, a.Status())
		case "signup":
			err = a.Signup(ctx)
		case "login":
			err = a.Login(ctx)
		case "verify":
			err = a.Verify(ctx, rest)
		case "abandon":
			err = a.Abandon(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "photos":
			err = a.Photos(ctx)
		case "upload":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: upload <path> [note...]")
				continue
			}
			err = a.Upload(ctx, args[0], strings.Join(args[1:], " "))
		case "retry":
			err = a.Retry(ctx)
		case "discard":
			err = a.Discard(ctx)
		case "search":
			err = a.Search(ctx, rest)
		case "analyze":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: analyze <url>")
				continue
			}
			err = a.Analyze(ctx, args[0])
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(w, "Error:", client.UserMessage(err))
		}
	}
}
