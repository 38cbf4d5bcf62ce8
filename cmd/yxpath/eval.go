package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/midbel/cli"
	"github.com/midbel/yxpath/xpath"
)

var evalCmd = cli.Command{
	Name:    "eval",
	Alias:   []string{"query"},
	Summary: "evaluate an expression against an instance document",
	Handler: &EvalCmd{},
}

type EvalCmd struct {
	Quiet bool
	Paths bool
	Stats bool
	ContextOptions
}

const evalInfo = "evaluation took %s - %s result for %q"

func (c *EvalCmd) Run(args []string) error {
	set := flag.NewFlagSet("eval", flag.ContinueOnError)
	c.attach(set, "data")
	set.BoolVar(&c.Quiet, "quiet", false, "suppress output - exit status tells whether the result is true")
	set.BoolVar(&c.Paths, "paths", false, "print the path of the selected nodes")
	set.BoolVar(&c.Stats, "stats", false, "print evaluation time")
	if err := set.Parse(args); err != nil {
		return err
	}
	if mode, err := parseMode(c.Mode); err != nil {
		return err
	} else if mode != xpath.ModeData {
		return fmt.Errorf("%s: %w by eval, use atomize", c.Mode, ErrMode)
	}
	sess, err := c.load()
	if err != nil {
		return err
	}
	node, err := sess.dataNode()
	if err != nil {
		return err
	}
	expr, err := sess.parse(set.Arg(0))
	if err != nil {
		return err
	}
	now := time.Now()
	res, err := expr.Eval(node, sess.Options)
	if err != nil {
		return err
	}
	if !c.Quiet {
		printValue(os.Stdout, res, c.Paths)
	}
	if c.Stats {
		fmt.Fprintf(os.Stderr, evalInfo, time.Since(now), res.Kind(), set.Arg(0))
		fmt.Fprintln(os.Stderr)
	}
	if ok, _ := xpath.Cast(res, xpath.KindBoolean); ok == xpath.Boolean(false) {
		return errFail
	}
	return nil
}
