package main

import (
	"flag"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/midbel/cli"
	"github.com/midbel/yxpath/xpath"
)

var replCmd = cli.Command{
	Name:    "repl",
	Summary: "evaluate expressions interactively",
	Handler: &ReplCmd{},
}

type ReplCmd struct {
	History int
	ContextOptions
}

func (c *ReplCmd) Run(args []string) error {
	set := flag.NewFlagSet("repl", flag.ContinueOnError)
	c.attach(set, "data")
	set.IntVar(&c.History, "history", 10, "number of results kept on screen")
	if err := set.Parse(args); err != nil {
		return err
	}
	sess, err := c.load()
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(newRepl(sess, c.History)).Run()
	return err
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	exprStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const replHelp = ":mode data|when|must|all, :ctx <expr>, :tokens <expr>, :debug <expr>, :quit"

type entry struct {
	expr   string
	output string
	failed bool
}

type repl struct {
	sess    *Session
	input   textinput.Model
	history []entry
	limit   int
}

func newRepl(sess *Session, limit int) *repl {
	input := textinput.New()
	input.Prompt = promptStyle.Render(sess.Mode.String() + "> ")
	input.Placeholder = "expression"
	return &repl{
		sess:  sess,
		input: input,
		limit: max(limit, 1),
	}
}

func (r *repl) Init() tea.Cmd {
	return r.input.Focus()
}

func (r *repl) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return r, tea.Quit
		case "enter":
			line := strings.TrimSpace(r.input.Value())
			r.input.SetValue("")
			if line == "" {
				return r, nil
			}
			if line == ":quit" || line == ":q" {
				return r, tea.Quit
			}
			r.push(r.execute(line))
			return r, nil
		}
	}
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *repl) View() tea.View {
	var str strings.Builder
	str.WriteString(infoStyle.Render(replHelp))
	str.WriteString("\n\n")
	for _, e := range r.history {
		str.WriteString(exprStyle.Render(e.expr))
		str.WriteString("\n")
		if e.failed {
			str.WriteString(errorStyle.Render(e.output))
		} else {
			str.WriteString(e.output)
		}
		str.WriteString("\n")
	}
	str.WriteString(r.input.View())
	return tea.NewView(str.String())
}

func (r *repl) push(e entry) {
	r.history = append(r.history, e)
	if n := len(r.history); n > r.limit {
		r.history = r.history[n-r.limit:]
	}
}

func (r *repl) execute(line string) entry {
	e := entry{expr: line}
	out, err := r.run(line)
	if err != nil {
		e.output = err.Error()
		e.failed = true
	} else {
		e.output = strings.TrimRight(out, "\n")
	}
	return e
}

func (r *repl) run(line string) (string, error) {
	var out strings.Builder
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case ":mode":
		mode, err := parseMode(rest)
		if err != nil {
			return "", err
		}
		r.sess.Mode = mode
		r.sess.Options.Mode = mode
		r.input.Prompt = promptStyle.Render(mode.String() + "> ")
		return "mode set to " + mode.String(), nil
	case ":ctx":
		r.sess.Context = rest
		if rest == "" {
			return "context reset to root", nil
		}
		return "context set to " + rest, nil
	case ":tokens":
		expr, err := xpath.Parse(rest)
		if err != nil {
			return "", err
		}
		xpath.DumpTokens(&out, expr)
		return out.String(), nil
	case ":debug":
		expr, err := xpath.Parse(rest)
		if err != nil {
			return "", err
		}
		return xpath.Debug(expr), nil
	}
	if strings.HasPrefix(cmd, ":") {
		return "", fmt.Errorf("%s: unknown command", cmd)
	}
	expr, err := xpath.Parse(line)
	if err != nil {
		return "", err
	}
	if r.sess.Mode == xpath.ModeData {
		node, err := r.sess.dataNode()
		if err != nil {
			return "", err
		}
		res, err := expr.Eval(node, r.sess.Options)
		if err != nil {
			return "", err
		}
		printValue(&out, res, true)
		return out.String(), nil
	}
	node, err := r.sess.schemaNode()
	if err != nil {
		return "", err
	}
	res, err := expr.Atomize(node, r.sess.Options)
	if err != nil {
		return "", err
	}
	printSchemaSet(&out, res)
	return out.String(), nil
}
