package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
	"github.com/midbel/yxpath/xpath"
)

var atomizeCmd = cli.Command{
	Name:    "atomize",
	Summary: "list the schema nodes an expression may access",
	Handler: &AtomizeCmd{},
}

type AtomizeCmd struct {
	Count bool
	ContextOptions
}

func (c *AtomizeCmd) Run(args []string) error {
	set := flag.NewFlagSet("atomize", flag.ContinueOnError)
	c.attach(set, "all")
	set.BoolVar(&c.Count, "count", false, "only print the number of schema nodes")
	if err := set.Parse(args); err != nil {
		return err
	}
	sess, err := c.load()
	if err != nil {
		return err
	}
	if sess.Mode == xpath.ModeData {
		return fmt.Errorf("atomize: schema mode expected")
	}
	node, err := sess.schemaNode()
	if err != nil {
		return err
	}
	expr, err := sess.parse(set.Arg(0))
	if err != nil {
		return err
	}
	res, err := expr.Atomize(node, sess.Options)
	if err != nil {
		if errors.Is(err, xpath.ErrUnresolved) {
			fmt.Fprintln(os.Stderr, "expression depends on schema nodes not resolved yet")
		}
		return err
	}
	if c.Count {
		fmt.Fprintln(os.Stdout, res.Len())
		return nil
	}
	printSchemaSet(os.Stdout, res)
	return nil
}
