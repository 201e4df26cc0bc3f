package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mapped-types/catalog"
	"github.com/wippyai/mapped-types/mapped"
	"github.com/wippyai/mapped-types/nativetype"
)

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Path to catalog YAML file")
		model       = flag.String("model", "", "Data model override (ilp32, lp64, llp64, host)")
		try         = flag.String("try", "", "Round-trip a value: name=value")
		dump        = flag.Bool("dump", false, "Dump descriptors and converters")
		verbose     = flag.Bool("v", false, "Log type definitions to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *catalogFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: mapinfo -catalog <file.yaml> [-model m]")
		fmt.Fprintln(os.Stderr, "       mapinfo -catalog <file.yaml> -try name=value")
		fmt.Fprintln(os.Stderr, "       mapinfo -catalog <file.yaml> -dump")
		fmt.Fprintln(os.Stderr, "       mapinfo -catalog <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			defer l.Sync()
			mapped.SetLogger(l)
			catalog.SetLogger(l)
		}
	}

	set, err := load(*catalogFile, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *interactive:
		err = runInteractive(*catalogFile, set)
	case *try != "":
		err = runTry(os.Stdout, set, *try)
	case *dump:
		err = runDump(os.Stdout, set)
	default:
		err = runList(os.Stdout, set, terminalWidth(), isTTY())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(path, model string) (*catalog.Set, error) {
	f, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if model == "" {
		return f.Build(nil)
	}
	m, err := nativetype.ParseDataModel(model)
	if err != nil {
		return nil, err
	}
	return f.Build(nativetype.NewRegistry(m))
}

func isTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}

func runTry(w io.Writer, set *catalog.Set, expr string) error {
	name, input, ok := strings.Cut(expr, "=")
	if !ok {
		return fmt.Errorf("-try expects name=value, got %q", expr)
	}
	entry, ok := lookup(set, name)
	if !ok {
		return fmt.Errorf("unknown type %q", name)
	}
	rt, err := roundTrip(entry, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", entry.Name, describe(entry))
	fmt.Fprintf(w, "  host:   %#v\n", rt.host)
	fmt.Fprintf(w, "  native: %#v\n", rt.native)
	fmt.Fprintf(w, "  back:   %#v\n", rt.back)
	return nil
}

func runDump(w io.Writer, set *catalog.Set) error {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisableMethods:          true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	for _, e := range set.Entries() {
		fmt.Fprintf(w, "%s (%s) real=%s id=%s\n", e.Name, e.Kind, e.Type.RealType(), e.Type.ID())
		cfg.Fdump(w, e.Type.RealType(), e.Converter)
	}
	return nil
}

func lookup(set *catalog.Set, name string) (catalog.Entry, bool) {
	for _, e := range set.Entries() {
		if e.Name == name {
			return e, true
		}
	}
	return catalog.Entry{}, false
}
