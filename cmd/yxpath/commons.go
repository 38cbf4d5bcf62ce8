package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/midbel/yxpath/xpath"
	"github.com/midbel/yxpath/yang"
)

var (
	ErrContext = errors.New("bad context node")
	ErrMode    = errors.New("mode not supported")
)

type ContextOptions struct {
	Schema     string
	Data       string
	Context    string
	Module     string
	Mode       string
	ConfigOnly bool
	Output     bool
	Trace      bool
	Verbose    bool
}

func (o *ContextOptions) attach(set *flag.FlagSet, mode string) {
	set.StringVar(&o.Schema, "schema", "", "file with the YANG modules")
	set.StringVar(&o.Data, "data", "", "instance document")
	set.StringVar(&o.Context, "ctx", "", "expression selecting the context node")
	set.StringVar(&o.Module, "module", "", "module where the expression is defined")
	set.StringVar(&o.Mode, "mode", mode, "evaluation mode (data, when, must, all)")
	set.BoolVar(&o.ConfigOnly, "config-only", false, "hide state data")
	set.BoolVar(&o.Output, "output", false, "use output statements of rpcs and actions")
	set.BoolVar(&o.Trace, "trace", false, "trace grammar rules while parsing")
	set.BoolVar(&o.Verbose, "verbose", false, "print warnings reported during evaluation")
}

// Session is the loaded environment in which expressions are evaluated.
type Session struct {
	Schema  *yang.Context
	Doc     *yang.DataNode
	Mode    xpath.Mode
	Context string
	Trace   bool
	xpath.Options
}

func (o ContextOptions) load() (*Session, error) {
	mode, err := parseMode(o.Mode)
	if err != nil {
		return nil, err
	}
	s := Session{
		Mode:    mode,
		Context: o.Context,
		Trace:   o.Trace,
		Options: xpath.Options{
			Mode:       mode,
			ConfigOnly: o.ConfigOnly,
			Output:     o.Output,
		},
	}
	var w io.Writer = io.Discard
	if o.Verbose {
		w = os.Stderr
	}
	s.Logger = slog.New(slog.NewTextHandler(w, nil))

	if o.Schema == "" {
		return nil, fmt.Errorf("schema file not provided")
	}
	if s.Schema, err = yang.LoadSchemaFile(o.Schema); err != nil {
		return nil, err
	}
	s.Options.Context = s.Schema
	if o.Module != "" {
		if s.Module = s.Schema.Module(o.Module); s.Module == nil {
			return nil, fmt.Errorf("%s: %w", o.Module, yang.ErrModule)
		}
	}
	if o.Data != "" {
		if s.Doc, err = yang.LoadDataFile(s.Schema, o.Data); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (s *Session) parse(expr string) (*xpath.Expression, error) {
	var options []xpath.Option
	if s.Trace {
		options = append(options, xpath.WithTracer(xpath.TraceStderr()))
	}
	return xpath.ParseWith(expr, options...)
}

// dataNode gives the context node of data mode evaluations: the node
// selected by the ctx expression or the document root.
func (s *Session) dataNode() (*yang.DataNode, error) {
	if s.Doc == nil {
		return nil, fmt.Errorf("%w: instance document not provided", ErrContext)
	}
	if s.Context == "" {
		return s.Doc, nil
	}
	list, err := xpath.Find(s.Doc, s.Context)
	if err != nil {
		return nil, err
	}
	if list.Len() != 1 {
		return nil, fmt.Errorf("%w: %s selects %d nodes", ErrContext, s.Context, list.Len())
	}
	return list.Nodes()[0].Data, nil
}

// schemaNode gives the context node of schema mode evaluations. A nil node
// stands for the root of the schema.
func (s *Session) schemaNode() (*yang.SchemaNode, error) {
	if s.Context == "" {
		return nil, nil
	}
	expr, err := xpath.Parse(s.Context)
	if err != nil {
		return nil, err
	}
	set, err := expr.Atomize(nil, xpath.Options{
		Mode:    xpath.ModeSchemaAll,
		Context: s.Schema,
		Output:  s.Output,
	})
	if err != nil {
		return nil, err
	}
	list := set.Context()
	if len(list) != 1 {
		return nil, fmt.Errorf("%w: %s selects %d schema nodes", ErrContext, s.Context, len(list))
	}
	return list[0], nil
}

func parseMode(str string) (xpath.Mode, error) {
	switch strings.ToLower(str) {
	case "", "data":
		return xpath.ModeData, nil
	case "when":
		return xpath.ModeSchemaWhen, nil
	case "must":
		return xpath.ModeSchemaMust, nil
	case "all":
		return xpath.ModeSchemaAll, nil
	default:
		return 0, fmt.Errorf("%s: unknown mode", str)
	}
}

func printValue(w io.Writer, v xpath.Value, paths bool) {
	set, ok := v.(*xpath.NodeSet)
	if !ok {
		str, _ := xpath.Cast(v, xpath.KindString)
		fmt.Fprintf(w, "%s: %s", v.Kind(), str)
		fmt.Fprintln(w)
		return
	}
	for _, n := range set.Nodes() {
		if paths {
			fmt.Fprintf(w, "%s = %s", n.Path(), n.String())
		} else {
			fmt.Fprint(w, n.String())
		}
		fmt.Fprintln(w)
	}
}

func printSchemaSet(w io.Writer, set *xpath.SchemaSet) {
	for _, i := range set.Items() {
		mark := " "
		if i.InCtx {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s", mark, i)
		fmt.Fprintln(w)
	}
}
