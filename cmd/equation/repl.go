package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/zephyrtronium/equation"
)

const historyFile = ".equation_history"

// repl reads expressions from the terminal and prints their values. Every
// expression shares reg, so parameters set with :set persist.
func (ev *evaluator) repl(reg *equation.Registry) error {
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

	for {
		line, err := ln.Prompt("= ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if strings.HasPrefix(line, ":") {
			if quit := ev.command(reg, line); quit {
				return nil
			}
			continue
		}
		a, err := equation.Compile(strip(line), ev.opts...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		ev.print(a)
	}
}

// command runs a REPL command and reports whether the REPL should exit.
func (ev *evaluator) command(reg *equation.Registry, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":vars":
		fmt.Println(reg)
	case ":set":
		nm, vl, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintln(os.Stderr, "usage: :set name=value")
			return false
		}
		if err := set(reg, nm, vl); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown command; try :set name=value, :vars, or :quit")
	}
	return false
}
