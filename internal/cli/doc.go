// Package cli defines the Cobra command tree for the glossa CLI. Each file
// in this package registers one top-level command (install, list, scan,
// etc.) with the root command. Command implementations delegate to
// internal/plugin for lifecycle logic and only handle flag parsing, I/O
// formatting, and user interaction.
package cli
