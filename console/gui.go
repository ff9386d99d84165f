package console

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"
)

// Gui type definition
type Gui struct {
	consoleOut  chan string // string channel, to which the console data is sent to
	g           *gocui.Gui  // main gocui GUI object
	v           *gocui.View // gocui view of the control console
	currentLine int         // counter to keep the position of the cursor
}

// NewGui returns a console writing into the "status" view of g.
func NewGui(g *gocui.Gui) (*Gui, error) {
	v, err := g.View("status")
	if err != nil {
		return nil, err
	}
	c := new(Gui)
	c.consoleOut = make(chan string)
	c.g = g
	c.v = v
	c.initGui()
	return c, nil
}

// initGui starts the goroutine feeding the view.
func (c *Gui) initGui() {
	go func() {
		for {
			s := <-c.consoleOut
			c.g.Update(func(g *gocui.Gui) error {
				fmt.Fprintf(c.v, "%s", s)
				return nil
			})
		}
	}()
}

// WriteConsole displays a string on the console
func (c *Gui) WriteConsole(msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		if line != "" {
			c.consoleOut <- line + "\n"
			c.currentLine++
		}
	}
	return nil
}
