package main

import (
	"fmt"
	"os"
	"sync"

	"minic/src/core"
	"minic/src/lexer"
	"minic/src/util"

	"tinygo.org/x/go-llvm"
)

// compileOne lexes and compiles a single source file (or stdin, if path
// is empty) and writes its object file, returning the first error
// encountered at any stage.
func compileOne(opt util.Options, path string) error {
	src, err := util.ReadSource(path)
	if err != nil {
		return fmt.Errorf("could not read source: %s", err)
	}

	diagName := path
	if diagName == "" {
		diagName = "<stdin>"
	}
	toks, err := lexer.Lex(diagName, src)
	if err != nil {
		return fmt.Errorf("lex error: %s", err)
	}

	if opt.TokenStream {
		w := util.NewWriter()
		for _, t := range toks {
			w.Write("%s\n", t)
		}
		w.Close()
		return nil
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	m, err := core.Compile(ctx, diagName, toks)
	if err != nil {
		return fmt.Errorf("compile error: %s", err)
	}
	defer m.Dispose()

	out := opt.Out
	if len(opt.Srcs) > 1 {
		// One output per input when compiling a batch: never let -o
		// collapse every worker onto the same file.
		out = ""
	}
	if err := util.EmitObject(opt, path, out, m); err != nil {
		return fmt.Errorf("object emission error: %s", err)
	}
	return nil
}

// run dispatches compilation of every requested source file, in
// parallel when more than one thread was requested. Work items are
// pending file paths on a Stack; worker goroutines pop until the stack
// is empty, reporting errors to a perror aggregator rather than
// failing fast, so a single bad file does not stop the rest of a batch.
func run(opt util.Options) error {
	if len(opt.Srcs) == 0 {
		return compileOne(opt, "")
	}
	if len(opt.Srcs) == 1 || opt.Threads <= 1 {
		for _, src := range opt.Srcs {
			if err := compileOne(opt, src); err != nil {
				return err
			}
		}
		return nil
	}

	pending := &util.Stack{}
	for _, src := range opt.Srcs {
		pending.Push(src)
	}

	errs := util.NewPerror(len(opt.Srcs))
	defer errs.Stop()

	workers := opt.Threads
	if workers > len(opt.Srcs) {
		workers = len(opt.Srcs)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				e := pending.Pop()
				if e == nil {
					return
				}
				path := e.(string)
				if err := compileOne(opt, path); err != nil {
					errs.Append(fmt.Errorf("%s: %s", path, err))
				}
			}
		}()
	}
	wg.Wait()

	if errs.Len() > 0 {
		for e := range errs.Errors() {
			fmt.Println(e)
		}
		return fmt.Errorf("%d of %d files failed to compile", errs.Len(), len(opt.Srcs))
	}
	return nil
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("command line argument error: %s\n", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	util.ListenWrite(opt, &wg)
	defer util.Close()

	if err := run(opt); err != nil {
		fmt.Printf("error: %s\n", err)
		wg.Wait()
		os.Exit(1)
	}
	wg.Wait()
}
