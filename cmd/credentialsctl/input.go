package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal reports whether r is an interactive terminal.
var isTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptSecret reads a secret without echo when stdin is a terminal, and a
// plain line otherwise so scripts can pipe it in.
func promptSecret(s ioStreams, prompt string) (string, error) {
	fmt.Fprint(s.err, prompt)

	if isTerminal(s.in) {
		pw, err := readPassword(int(s.in.(*os.File).Fd()))
		fmt.Fprintln(s.err)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	return readLine(s.lines)
}

func promptLine(s ioStreams, prompt string) (string, error) {
	fmt.Fprint(s.err, prompt)
	return readLine(s.lines)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlagSet(name string, s ioStreams) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.err)
	return fs
}

// parseFlags maps -h and bad flags to errUsage. The flag package has already
// printed the details.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	return nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
