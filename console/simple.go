package console

import (
	"io"
	"os"
	"strings"
)

// Simple console type definition
type Simple struct {
	consoleOut  chan string // string channel, to which the console data is sent to
	done        chan bool
	out         io.Writer
	currentLine int // counter to keep the position of the cursor
}

// NewSimple returns a console writing to out, stdout when out is nil.
func NewSimple(out io.Writer) *Simple {
	if out == nil {
		out = os.Stdout
	}
	c := new(Simple)
	c.consoleOut = make(chan string)
	c.done = make(chan bool)
	c.out = out
	c.initSimple()
	return c
}

// initSimple starts the goroutine owning the output.
func (c *Simple) initSimple() {
	go func() {
		for s := range c.consoleOut {
			io.WriteString(c.out, s)
			c.done <- true
		}
	}()
}

// WriteConsole displays a string on the console, one line per non-empty line of msg.
func (c *Simple) WriteConsole(msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		if line != "" {
			c.consoleOut <- line + "\n"
			<-c.done
			c.currentLine++
		}
	}
	return nil
}

// Lines returns the number of lines written.
func (c *Simple) Lines() int {
	return c.currentLine
}
