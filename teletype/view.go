package teletype

import (
	"fmt"
	"time"

	"github.com/jroimartin/gocui"
)

// View mirrors teletype output into a gocui view.
type View struct {
	gui      *gocui.Gui
	termView *gocui.View

	// terminal out channel -> required, as due to way gocui refreshes the
	// view, it needs to happen in the separate goroutine
	consoleOut chan string
	done       chan bool
}

// NewView returns a writer for the named view of g.
func NewView(g *gocui.Gui, name string) (*View, error) {
	v, err := g.View(name)
	if err != nil {
		return nil, err
	}
	t := &View{
		gui:        g,
		termView:   v,
		consoleOut: make(chan string),
		done:       make(chan bool),
	}
	t.initOutput()
	return t, nil
}

// initOutput starts a goroutine reading from the consoleOut channel
// and calling the gocui.gui.Update to modify the view.
// t.done channel is used to force synchronization.
// 1ms sleep is required to give the gocui enough time to print the character.
func (t *View) initOutput() {
	go func() {
		for {
			s := <-t.consoleOut
			t.gui.Update(func(g *gocui.Gui) error {
				fmt.Fprintf(t.termView, "%s", s)
				return nil
			})
			time.Sleep(1 * time.Millisecond)
			t.done <- true
		}
	}()
}

// Write sends p to the view and waits for it to be queued.
func (t *View) Write(p []byte) (int, error) {
	t.consoleOut <- string(p)
	<-t.done
	return len(p), nil
}
