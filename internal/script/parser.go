package script

import (
	"strings"
	"unicode"
)

type fragmentKind int

const (
	fragLiteral fragmentKind = iota
	fragVariable
	fragCall
)

type fragment struct {
	kind fragmentKind
	text string
	call scriptNode
}

type wordNode []fragment

type commandNode []wordNode

type scriptNode []commandNode

type parser struct {
	src      []rune
	pos      int
	depth    int
	maxDepth int
}

// parse limita el anidamiento de [ ] a maxDepth para no agotar la pila.
func parse(text string, maxDepth int) (scriptNode, error) {
	p := &parser{src: []rune(text), maxDepth: maxDepth}
	node, err := p.parseScript(false)
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, Errorf("Unexpected %q at position %d", p.peek(), p.pos)
	}
	return node, nil
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	return p.src[p.pos]
}

func (p *parser) parseScript(nested bool) (scriptNode, error) {
	var script scriptNode
	var cmd commandNode
	flush := func() {
		if len(cmd) > 0 {
			script = append(script, cmd)
			cmd = nil
		}
	}

	for !p.eof() {
		ch := p.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			p.pos++
		case ch == ';' || ch == '\n':
			p.pos++
			flush()
		case nested && ch == ']':
			flush()
			return script, nil
		default:
			word, err := p.parseWord(nested)
			if err != nil {
				return nil, err
			}
			cmd = append(cmd, word)
		}
	}
	flush()
	return script, nil
}

func (p *parser) parseWord(nested bool) (wordNode, error) {
	var word wordNode
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			word = append(word, fragment{kind: fragLiteral, text: lit.String()})
			lit.Reset()
		}
	}
	// Un par de llaves vacío sigue siendo una palabra.
	sawBraces := false

	for !p.eof() {
		ch := p.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == ';' {
			break
		}
		if nested && ch == ']' {
			break
		}
		switch ch {
		case '{':
			text, err := p.parseBraced()
			if err != nil {
				return nil, err
			}
			lit.WriteString(text)
			sawBraces = true
		case '[':
			p.pos++
			if p.depth >= p.maxDepth {
				return nil, &RecursionError{Depth: p.maxDepth}
			}
			p.depth++
			inner, err := p.parseScript(true)
			p.depth--
			if err != nil {
				return nil, err
			}
			if p.eof() || p.peek() != ']' {
				return nil, Errorf("Unmatched [")
			}
			p.pos++
			flushLit()
			word = append(word, fragment{kind: fragCall, call: inner})
		case '$':
			p.pos++
			name := p.parseVariableName()
			if name == "" {
				lit.WriteRune('$')
				continue
			}
			flushLit()
			word = append(word, fragment{kind: fragVariable, text: name})
		case '\\':
			p.pos++
			if p.eof() {
				lit.WriteRune('\\')
				continue
			}
			lit.WriteRune(p.peek())
			p.pos++
		default:
			lit.WriteRune(ch)
			p.pos++
		}
	}
	flushLit()
	if len(word) == 0 && sawBraces {
		word = append(word, fragment{kind: fragLiteral})
	}
	return word, nil
}

func (p *parser) parseBraced() (string, error) {
	// p.peek() == '{'
	p.pos++
	depth := 1
	var out strings.Builder
	for !p.eof() {
		ch := p.peek()
		p.pos++
		switch ch {
		case '\\':
			if p.eof() {
				out.WriteRune('\\')
				continue
			}
			out.WriteRune(p.peek())
			p.pos++
		case '{':
			depth++
			out.WriteRune(ch)
		case '}':
			depth--
			if depth == 0 {
				return out.String(), nil
			}
			out.WriteRune(ch)
		default:
			out.WriteRune(ch)
		}
	}
	return "", Errorf("Unmatched {")
}

func (p *parser) parseVariableName() string {
	start := p.pos
	for !p.eof() {
		ch := p.peek()
		if ch != '_' && ch != '-' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

var escapeReplacer = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)

// EscapeBraced envuelve text en llaves de modo que se lea de vuelta como una
// sola palabra literal.
func EscapeBraced(text string) string {
	return "{" + escapeReplacer.Replace(text) + "}"
}

// Escape devuelve word tal cual si ya es una palabra literal simple.
func Escape(word string) string {
	if word == "" || strings.ContainsAny(word, " \t\r\n;{}[]$\\") {
		return EscapeBraced(word)
	}
	return word
}
