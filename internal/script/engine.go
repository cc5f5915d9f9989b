package script

import "strings"

const DefaultMaxDepth = 64

// Interpreter evalúa un script en un Context y devuelve el texto resultante y
// el nombre visible del último comando ejecutado.
type Interpreter interface {
	Interpret(c Context, text string) (result string, displayName string, err error)
}

type Engine struct {
	maxDepth int
}

func NewEngine(maxDepth int) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Engine{maxDepth: maxDepth}
}

func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

func (e *Engine) Interpret(c Context, text string) (string, string, error) {
	c = c.enter()
	if c.depth > e.maxDepth {
		return "", "", &RecursionError{Depth: e.maxDepth}
	}
	tree, err := parse(text, e.maxDepth)
	if err != nil {
		return "", "", err
	}
	return e.evalScript(c, tree)
}

func (e *Engine) evalScript(c Context, tree scriptNode) (string, string, error) {
	var result, display string
	for _, cmd := range tree {
		r, d, err := e.evalCommand(c, cmd)
		if err != nil {
			return "", "", err
		}
		result, display = r, d
	}
	return result, display, nil
}

func (e *Engine) evalCommand(c Context, cmd commandNode) (string, string, error) {
	words := make([]string, 0, len(cmd))
	for _, w := range cmd {
		s, err := e.evalWord(c, w)
		if err != nil {
			return "", "", err
		}
		words = append(words, s)
	}
	if len(words) == 0 {
		return "", "", nil
	}
	if c.Registry == nil {
		return "", "", Errorf("No command registry available")
	}

	name := words[0]
	b, err := c.Registry.LookupCommand(c.Ctx(), name)
	if err != nil {
		return "", "", err
	}
	if b == nil {
		return "", "", Errorf("Unknown command name: %s", name)
	}
	out, err := b.Call(c, words[1:])
	if err != nil {
		return "", "", err
	}
	return out, b.DisplayName, nil
}

func (e *Engine) evalWord(c Context, w wordNode) (string, error) {
	var sb strings.Builder
	for _, f := range w {
		switch f.kind {
		case fragLiteral:
			sb.WriteString(f.text)
		case fragVariable:
			v, ok := c.Environment[f.text]
			if !ok {
				return "", Errorf("Unknown variable: %s", f.text)
			}
			sb.WriteString(v)
		case fragCall:
			inner := c.enter()
			if inner.depth > e.maxDepth {
				return "", &RecursionError{Depth: e.maxDepth}
			}
			out, _, err := e.evalScript(inner, f.call)
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
		}
	}
	return sb.String(), nil
}
