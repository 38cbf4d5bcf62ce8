package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/midbel/cli"
	"github.com/midbel/yxpath/xpath"
)

var checkCmd = cli.Command{
	Name:    "check",
	Summary: "check the syntax of expressions",
	Handler: &CheckCmd{},
}

type CheckCmd struct {
	FailFast bool
	Trace    bool
}

func (c *CheckCmd) Run(args []string) error {
	set := flag.NewFlagSet("check", flag.ContinueOnError)
	set.BoolVar(&c.FailFast, "fail-fast", false, "stop checking expressions as soon as first error is encountered")
	set.BoolVar(&c.Trace, "trace", false, "trace grammar rules while parsing")
	if err := set.Parse(args); err != nil {
		return err
	}
	var (
		options []xpath.Option
		failed  bool
	)
	if c.Trace {
		options = append(options, xpath.WithTracer(xpath.TraceStderr()))
	}
	for _, str := range set.Args() {
		_, err := xpath.ParseWith(str, options...)
		if err == nil {
			fmt.Fprintf(os.Stdout, "%s: expression is valid", str)
			fmt.Fprintln(os.Stdout)
			continue
		}
		failed = true
		printSyntaxError(err)
		if c.FailFast {
			return errFail
		}
	}
	if failed {
		return errFail
	}
	return nil
}

func printSyntaxError(err error) {
	var e xpath.SyntaxError
	if !errors.As(err, &e) {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(os.Stderr, e.Expr)
	fmt.Fprint(os.Stderr, strings.Repeat(" ", e.Offset))
	fmt.Fprintln(os.Stderr, "^")
	fmt.Fprintln(os.Stderr, err)
}
