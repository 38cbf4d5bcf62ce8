package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
)

var errFail = errors.New("fail")

var (
	summary = "yxpath evaluates YANG XPath expressions against instance data and schemas"
	help    = `yxpath loads a set of YANG modules described in YAML and, optionally,
an instance document, then evaluates expressions on them.

Data mode (eval) gives the value of an expression. Schema modes (atomize)
give every schema node an expression may access, as needed to compute the
dependencies of when and must statements.`
)

func main() {
	var (
		set  = cli.NewFlagSet("yxpath")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"eval"}, &evalCmd)
	root.Register([]string{"query"}, &evalCmd)
	root.Register([]string{"atomize"}, &atomizeCmd)
	root.Register([]string{"check"}, &checkCmd)
	root.Register([]string{"debug"}, &debugCmd)
	root.Register([]string{"debug", "tree"}, &debugCmd)
	root.Register([]string{"tokens"}, &tokensCmd)
	root.Register([]string{"debug", "tokens"}, &tokensCmd)
	root.Register([]string{"functions"}, &functionsCmd)
	root.Register([]string{"repl"}, &replCmd)

	return root
}
