package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/xirelogy/go-mumei"
	"github.com/xirelogy/go-mumei/internal/config"
	"github.com/xirelogy/go-mumei/internal/parser"
	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/server"
	"github.com/xirelogy/go-mumei/internal/value"
)

const (
	appName     = "mumei"
	historyFile = ".mumei_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %[1]s run [-vm|-fast] [-disasm] [-ast] [-config file] <file>   Run a script.
  %[1]s repl [-config file]                                      Start the REPL.
  %[1]s serve [-config file] [-addr host:port]                   Serve the HTTP API.
`, appName)
}

// newEngine loads the optional config file and builds an engine logging
// at the configured level.
func newEngine(path string) (*mumei.Engine, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return mumei.New(mumei.WithConfig(cfg), mumei.WithLogger(cfg.Log.Logger()))
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	useVM := fs.Bool("vm", false, "compile to bytecode and run on the VM")
	fast := fs.Bool("fast", false, "run on the numeric fast path (implies -vm)")
	disasm := fs.Bool("disasm", false, "print the bytecode listing instead of running")
	showAST := fs.Bool("ast", false, "print the syntax tree instead of running")
	cfgPath := fs.String("config", "", "config file (.toml, .yaml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [flags] <file>\n", appName)
		return 2
	}
	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	engine, err := newEngine(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer engine.Close()

	if err := run(engine, string(src), runMode{vm: *useVM, fast: *fast, disasm: *disasm, ast: *showAST}, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
		return 1
	}
	return 0
}

type runMode struct {
	vm, fast, disasm, ast bool
}

func run(engine *mumei.Engine, src string, mode runMode, out io.Writer) error {
	if mode.ast {
		text, err := engine.FormatAST(src)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, text)
		return err
	}
	if !mode.vm && !mode.fast && !mode.disasm {
		_, err := engine.Evaluate(src)
		return err
	}

	h, err := engine.CompileToBytecode(src)
	if err != nil {
		return err
	}
	defer engine.ReleaseBytecode(h)
	switch {
	case mode.disasm:
		listing, err := engine.Disassemble(h)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, listing)
		return err
	case mode.fast:
		result, err := engine.ExecuteBytecodeFast(h)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, value.Number(result).String())
		return err
	default:
		_, err := engine.ExecuteBytecode(h)
		return err
	}
}

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file (.toml, .yaml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	engine, err := newEngine(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer engine.Close()
	session, err := engine.NewSession(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("Mumei REPL. Type :quit to exit, :names or :builtins to list bindings.")
	for {
		code, ok := readStatement(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit":
			return 0
		case ":names":
			fmt.Println(strings.Join(session.Names(), " "))
			continue
		case ":builtins":
			for _, spec := range runtime.All() {
				fmt.Printf("%s/%d ", spec.Name, spec.Arity)
			}
			fmt.Println()
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		result, err := session.Eval(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if result != "null" {
			fmt.Println(result)
		}
	}
}

// readStatement keeps prompting while the input so far ends mid-statement.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := parser.Parse(src)
		var pe *parser.Error
		if errors.As(perr, &pe) && pe.Kind == parser.UnexpectedEOF {
			continue
		}
		return src, true
	}
}

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file (.toml, .yaml)")
	addr := fs.String("addr", "", "listen address, overrides the config")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	engine, err := newEngine(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer engine.Close()
	if *addr != "" {
		engine.Config().Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.New(engine).Listen(ctx); err != nil {
		engine.Logger().Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}
