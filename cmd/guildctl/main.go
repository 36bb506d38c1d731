// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"log/slog"

	"github.com/verdanta/guildcore/pkg/logging"
)

func main() {
	logger := logging.New(logging.Config{
		Service: "guildctl",
		LogDir:  "~/.guildcore/logs",
		Quiet:   true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
