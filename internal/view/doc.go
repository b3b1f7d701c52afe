// Package view turns store snapshots into view descriptions.
//
// Every function here is pure: it reads a [library.Snapshot] and returns a value that
// says what to show and which controls apply. Display layers (the CLI printers and
// the TUI) only apply these descriptions, so capability rules and empty states are
// decided once, here.
package view
