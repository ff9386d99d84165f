// Package console carries emulator status messages to the user.
//
// Messages go through a channel to a goroutine owning the output, so any
// part of the emulator can report without touching the terminal or the gui
// directly.
package console

// Console is the status output.
type Console interface {
	WriteConsole(msg string) error
}
