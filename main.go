package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"bootsector/bootimg"
	"bootsector/console"
	"bootsector/cpu"
	"bootsector/layout"
	"bootsector/logger"
	"bootsector/system"
)

const defaultPayload = "Hello from sector 2"

// options shared by the subcommands
type options struct {
	variant string
	layout  string
	a20     bool
	drive   uint8
	payload string
}

func (o *options) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.variant, "variant", "hello", "boot sector variant: hello|disk|vector|protected")
	cmd.Flags().StringVar(&o.layout, "layout", "flat", "memory layout: flat|segmented")
	cmd.Flags().BoolVar(&o.a20, "a20", false, "enable the A20 line")
	cmd.Flags().Uint8Var(&o.drive, "drive", 0, "boot drive number handed over in DL")
	cmd.Flags().StringVar(&o.payload, "payload", defaultPayload, "text stored in sector 2")
}

func (o *options) build() (*bootimg.Image, error) {
	l, err := layout.ByName(o.layout)
	if err != nil {
		return nil, err
	}
	l.A20 = o.a20
	l.BootDrive = o.drive
	v, err := bootimg.ParseVariant(o.variant)
	if err != nil {
		return nil, err
	}
	return bootimg.Build(v, l)
}

func main() {
	root := &cobra.Command{
		Use:           "bootsector",
		Short:         "Build x86 boot sectors and boot them on an emulated PC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildCommand(), runCommand(), inspectCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildCommand() *cobra.Command {
	var o options
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write a 1.44M floppy image with the boot sector and payload",
		RunE: func(_ *cobra.Command, _ []string) error {
			img, err := o.build()
			if err != nil {
				return err
			}
			if err := bootimg.WriteFloppy(out, img.Bytes, bootimg.Payload(o.payload)); err != nil {
				return err
			}
			fmt.Printf("%s: %s boot sector, %d of %d bytes used\n", out, img.Variant, img.CodeSize, bootimg.Size-2)
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&out, "out", "boot.img", "output image file")
	return cmd
}

func runCommand() *cobra.Command {
	var (
		o          options
		image      string
		maxSteps   uint64
		logPath    string
		trace      bool
		history    int
		lenient    bool
		gui        bool
		screenshot string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot an image, or a freshly built variant, and run it until it idles",
		RunE: func(_ *cobra.Command, _ []string) error {
			img, err := o.build()
			if err != nil {
				return err
			}
			var lg *log.Logger
			if logPath != "" || trace {
				lg = logger.New(logPath)
			}
			opts := system.Options{
				Layout:  img.Layout,
				Log:     lg,
				Trace:   trace,
				History: history,
				Lenient: lenient,
			}
			attach := func(sys *system.System) error {
				if image != "" {
					return sys.AttachImage(image)
				}
				return sys.AttachBytes(bootimg.Floppy(img.Bytes, bootimg.Payload(o.payload)))
			}

			if gui {
				return runGui(opts, attach, maxSteps)
			}

			opts.Console = console.NewSimple(os.Stderr)
			opts.Mirror = os.Stdout
			sys := system.InitializeSystem(opts)
			defer sys.Close()
			if err := attach(sys); err != nil {
				return err
			}
			if err := sys.Boot(); err != nil {
				return err
			}
			runErr := sys.Run(maxSteps)
			fmt.Println()
			fmt.Fprint(os.Stderr, sys.Summary())
			if h := sys.CPU.History(); h != nil && runErr != nil {
				fmt.Fprintln(os.Stderr, "last instructions:")
				for _, line := range h.Items() {
					fmt.Fprintln(os.Stderr, " ", line)
				}
			}
			if screenshot != "" {
				if err := sys.TTY.Snapshot(screenshot); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&image, "image", "", "disk image to boot instead of the built variant")
	cmd.Flags().Uint64Var(&maxSteps, "max-steps", 1000000, "stop after this many instructions, 0 for no limit")
	cmd.Flags().StringVar(&logPath, "log", "", "append the emulator log to this file")
	cmd.Flags().BoolVar(&trace, "trace", false, "log every instruction")
	cmd.Flags().IntVar(&history, "history", 32, "number of recent instructions kept for error reports")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "keep executing between setting CR0.PE and the far jump")
	cmd.Flags().BoolVar(&gui, "gui", false, "show screen, registers and status in a terminal ui")
	cmd.Flags().StringVar(&screenshot, "screenshot", "", "save the final screen as a PNG")
	return cmd
}

func inspectCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print layout, symbols, disassembly and descriptor table of a variant",
		RunE: func(_ *cobra.Command, _ []string) error {
			img, err := o.build()
			if err != nil {
				return err
			}
			fmt.Print(inspect(img))
			return nil
		},
	}
	o.register(cmd)
	return cmd
}

// inspect formats everything known about img.
func inspect(img *bootimg.Image) string {
	var b strings.Builder
	l := img.Layout
	fmt.Fprintf(&b, "variant %s, segment %#04x origin %#04x, %d bytes of code\n\n",
		img.Variant, l.Segment, l.Origin, img.CodeSize)

	fmt.Fprintln(&b, "regions:")
	for _, r := range l.Regions() {
		fmt.Fprintf(&b, "  %s\n", r)
	}

	fmt.Fprintln(&b, "\nsymbols:")
	names := make([]string, 0, len(img.Symbols))
	for name := range img.Symbols {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return img.Symbols[names[i]] < img.Symbols[names[j]] })
	for _, name := range names {
		fmt.Fprintf(&b, "  %08x  %s\n", img.Symbols[name], name)
	}

	// code runs up to the data, 32 bit from entry32 on
	end := img.Symbols[bootimg.LabelBootDrive] - l.LoadAddress
	split := end
	if at, ok := img.Symbols[bootimg.LabelEntry32]; ok {
		split = at - l.LoadAddress
	}
	fmt.Fprintln(&b, "\ncode:")
	for _, line := range cpu.Listing(img.Bytes[:split], l.LoadAddress, false) {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if split < end {
		fmt.Fprintln(&b, "  ; 32 bit")
		for _, line := range cpu.Listing(img.Bytes[split:end], l.LoadAddress+split, true) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if off, table, ok := bootimg.FindGDT(img.Bytes); ok {
		fmt.Fprintf(&b, "\ngdt at %08x:\n", l.LoadAddress+uint32(off))
		for i, d := range table {
			fmt.Fprintf(&b, "  %#04x  %s\n", i*8, d)
		}
	}
	return b.String()
}
