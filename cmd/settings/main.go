// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// settings reads and writes values in an INI settings file from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

var (
	run = func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return newRootCmd().ExecuteContext(ctx)
	}
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "settings:", err)
		osExit(1)
	}
}
