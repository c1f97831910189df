// Package cli implements the bloomed command line: serve, generate and info.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// MainWithArgs is a testable variant of Main that accepts args and streams explicitly.
func MainWithArgs(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := buildRootCmd(ctx, &Options{})
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/bloomed.
func Main() int {
	return MainWithArgs(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
