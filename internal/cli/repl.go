package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const helpText = "Available commands: help, count, adduser, user <username>, user --id <id>, lookup <email>, export, exit"

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Count(ctx context.Context) error
	AddUser(ctx context.Context) error
	User(ctx context.Context, username string) error
	UserByID(ctx context.Context, id string) error
	Lookup(ctx context.Context, email string) error
	Export(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Commands
// that prompt read from the same reader. Command errors are printed and the
// loop carries on.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprint(out, "waitlist> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)

		case "count":
			err = a.Count(ctx)

		case "adduser":
			err = a.AddUser(ctx)

		case "user":
			switch {
			case len(args) == 2 && args[0] == "--id":
				err = a.UserByID(ctx, args[1])
			case len(args) == 1 && args[0] != "--id":
				err = a.User(ctx, args[0])
			default:
				fmt.Fprintln(out, "usage: user <username> | user --id <id>")
				continue
			}

		case "lookup":
			if len(args) != 1 {
				fmt.Fprintln(out, "usage: lookup <email>")
				continue
			}
			err = a.Lookup(ctx, args[0])

		case "export":
			err = a.Export(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}
