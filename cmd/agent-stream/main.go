// Package main provides the agent-stream CLI.
package main

import (
	"context"
	"os"
)

// main is the program entry point.
func main() {
	os.Exit(execute(context.Background(), os.Args[1:], newRuntime(os.Stdout, os.Stderr)))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, rt *runtime) int {
	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(rt.stdout)
	root.SetErr(rt.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		handleError(rt.stderr, err)
		return 1
	}
	return 0
}
