package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jroimartin/gocui"

	"bootsector/console"
	"bootsector/system"
	"bootsector/teletype"
)

// runGui boots the machine inside a gocui screen: the teletype on top,
// registers in the middle, status messages below. Ctrl-C quits.
func runGui(opts system.Options, attach func(*system.System) error, maxSteps uint64) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("couldn't create gui: %w", err)
	}
	defer g.Close()

	g.SetManagerFunc(guiLayout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}

	// start emulation once the views exist
	g.Update(func(g *gocui.Gui) error {
		return startMachine(g, opts, attach, maxSteps)
	})

	if err := g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

// startMachine wires the views into the machine and runs it in the
// background.
func startMachine(g *gocui.Gui, opts system.Options, attach func(*system.System) error, maxSteps uint64) error {
	status, err := console.NewGui(g)
	if err != nil {
		return err
	}
	screen, err := teletype.NewView(g, "console")
	if err != nil {
		return err
	}
	opts.Console = status
	opts.Mirror = screen

	sys := system.InitializeSystem(opts)
	if err := attach(sys); err != nil {
		return err
	}
	if err := sys.Boot(); err != nil {
		return err
	}

	ticker := updateRegisters(sys, g)
	go func() {
		defer sys.Close()
		defer ticker.Stop()
		if err := sys.Run(maxSteps); err != nil {
			_ = status.WriteConsole(err.Error())
		}
		_ = status.WriteConsole(sys.Summary().String())
		showRegisters(sys, g)
	}()
	return nil
}

// update registers display
// has to be run in go routine -> gocui allows updating the view only through Update function
func updateRegisters(sys *system.System, g *gocui.Gui) *time.Ticker {
	ticker := time.NewTicker(100 * time.Millisecond)
	go func() {
		for range ticker.C {
			showRegisters(sys, g)
		}
	}()
	return ticker
}

func showRegisters(sys *system.System, g *gocui.Gui) {
	regs := sys.Registers()
	g.Update(func(g *gocui.Gui) error {
		v, err := g.View("registers")
		if err != nil {
			return err
		}
		v.Clear()
		fmt.Fprint(v, regs)
		return nil
	})
}

// gocui layout
func guiLayout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// up -> console
	if v, err := g.SetView("console", 0, 0, maxX-1, maxY-18); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Screen"
		v.Wrap = true
		v.Autoscroll = true
	}

	// middle -> register values
	if v, err := g.SetView("registers", 0, maxY-17, maxX-1, maxY-14); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}
	// down -> status
	if v, err := g.SetView("status", 0, maxY-13, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Autoscroll = true
	}
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
