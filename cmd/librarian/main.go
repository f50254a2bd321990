package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"librarian/internal/conflict"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if errors.Is(err, conflict.ErrCancelled) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
