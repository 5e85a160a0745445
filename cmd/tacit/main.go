package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/jhlagado/tacit/compiler"
	"github.com/jhlagado/tacit/lang/tacit"
	"github.com/jhlagado/tacit/vm"
)

var (
	dump      bool
	execStats bool
	noRawIO   bool
)

func atExit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func runSource(v *vm.VM, c *compiler.Compiler, name, src string) error {
	entry, err := c.Compile(name, src)
	if err != nil {
		return errors.Wrapf(err, "compiling %s", name)
	}
	return v.Run(entry)
}

func runFile(v *vm.VM, c *compiler.Compiler, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	return runSource(v, c, path, string(b))
}

func repl(v *vm.VM, c *compiler.Compiler) error {
	rawtty, tearDown := setupIO()
	if tearDown != nil {
		defer tearDown()
	}
	_ = rawtty
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		if err := runSource(v, c, "<repl>", line); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if err := tacit.DumpStack(v, os.Stdout); err != nil {
			return err
		}
	}
	return sc.Err()
}

func main() {
	flag.BoolVar(&dump, "dump", false, "dump the data stack and execution stats upon exit")
	flag.BoolVar(&execStats, "stats", false, "print performance statistics upon exit")
	flag.BoolVar(&noRawIO, "noraw", false, "disable raw terminal IO in REPL mode")
	flag.Parse()

	var sizes = vm.DefaultSegmentSizes()
	target := vm.New(vm.WithSegmentSizes(sizes), vm.WithTrace(os.Stderr))

	baseDir := "."
	if flag.NArg() > 0 {
		baseDir = filepath.Dir(flag.Arg(0))
	}
	host := tacit.NewHost(baseDir)
	comp := compiler.New(target, host)

	start := time.Now()
	var err error
	if flag.NArg() == 0 {
		err = repl(target, comp)
	} else {
		for _, path := range flag.Args() {
			if err = runFile(target, comp, path); err != nil {
				break
			}
		}
	}

	if err == nil && dump {
		err = tacit.DumpVM(target, os.Stdout)
	}
	if execStats {
		delta := time.Since(start)
		fmt.Fprintf(os.Stderr, "executed %d instructions in %v\n", target.InstructionCount(), delta)
	}
	atExit(err)
}
