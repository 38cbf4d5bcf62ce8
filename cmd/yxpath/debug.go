package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
	"github.com/midbel/yxpath/xpath"
)

var debugCmd = cli.Command{
	Name:    "debug",
	Summary: "print the compiled form of an expression",
	Handler: &DebugCmd{},
}

var tokensCmd = cli.Command{
	Name:    "tokens",
	Summary: "print the tokens of an expression with their repeat chains",
	Handler: &TokensCmd{},
}

var functionsCmd = cli.Command{
	Name:    "functions",
	Summary: "list the functions known by the parser",
	Handler: &FunctionsCmd{},
}

type DebugCmd struct {
	Trace bool
}

func (c *DebugCmd) Run(args []string) error {
	set := flag.NewFlagSet("debug", flag.ContinueOnError)
	set.BoolVar(&c.Trace, "trace", false, "trace grammar rules while parsing")
	if err := set.Parse(args); err != nil {
		return err
	}
	expr, err := parseTraced(set.Arg(0), c.Trace)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, xpath.Debug(expr))
	return nil
}

type TokensCmd struct {
	Trace bool
}

func (c *TokensCmd) Run(args []string) error {
	set := flag.NewFlagSet("tokens", flag.ContinueOnError)
	set.BoolVar(&c.Trace, "trace", false, "trace grammar rules while parsing")
	if err := set.Parse(args); err != nil {
		return err
	}
	expr, err := parseTraced(set.Arg(0), c.Trace)
	if err != nil {
		return err
	}
	xpath.DumpTokens(os.Stdout, expr)
	return nil
}

type FunctionsCmd struct{}

func (c *FunctionsCmd) Run(args []string) error {
	set := cli.NewFlagSet("functions")
	if err := set.Parse(args); err != nil {
		return err
	}
	for _, n := range xpath.Functions() {
		fmt.Fprintln(os.Stdout, n)
	}
	return nil
}

func parseTraced(str string, trace bool) (*xpath.Expression, error) {
	var options []xpath.Option
	if trace {
		options = append(options, xpath.WithTracer(xpath.TraceStderr()))
	}
	expr, err := xpath.ParseWith(str, options...)
	if err != nil {
		printSyntaxError(err)
		return nil, errFail
	}
	return expr, nil
}
