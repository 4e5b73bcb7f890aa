package glimmer

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports a template syntax problem with its position.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse parses template source into a Template.
func Parse(src string) (*Template, error) {
	p := &parser{src: src}
	body, err := p.parseContent()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		switch {
		case p.has("{{/"):
			return nil, p.errorf("unexpected block close %s", p.peekMustache())
		case p.isElse():
			return nil, p.errorf("unexpected {{else}} outside of a block")
		default:
			return nil, p.errorf("unexpected closing tag %s", p.peekClosingTag())
		}
	}
	return &Template{Body: body}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) has(prefix string) bool {
	return strings.HasPrefix(p.src[p.pos:], prefix)
}

func (p *parser) errorf(format string, args ...any) error {
	line, col := 1, 1
	for _, r := range p.src[:min(p.pos, len(p.src))] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peekMustache() string {
	end := strings.Index(p.src[p.pos:], "}}")
	if end < 0 {
		return p.src[p.pos:]
	}
	return p.src[p.pos : p.pos+end+2]
}

func (p *parser) peekClosingTag() string {
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		return p.src[p.pos:]
	}
	return p.src[p.pos : p.pos+end+1]
}

func (p *parser) expect(s string) error {
	if !p.has(s) {
		return p.errorf("expected %q", s)
	}
	p.pos += len(s)
	return nil
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isElse matches {{else}} and {{else something}}.
func (p *parser) isElse() bool {
	if !p.has("{{else") {
		return false
	}
	rest := p.src[p.pos+len("{{else"):]
	return strings.HasPrefix(rest, "}}") || (len(rest) > 0 && isSpace(rest[0]))
}

// parseContent reads nodes until EOF, a block close, an else or a closing
// element tag. The terminator is left unconsumed.
func (p *parser) parseContent() ([]Node, error) {
	var nodes []Node
	for !p.eof() {
		if p.has("{{/") || p.isElse() || p.has("</") {
			return nodes, nil
		}

		var (
			n   Node
			err error
		)
		switch {
		case p.has("{{!--"):
			n, err = p.parseComment("{{!--", "--}}", true)
		case p.has("{{!"):
			n, err = p.parseComment("{{!", "}}", false)
		case p.has("{{#"):
			n, err = p.parseBlock()
		case p.has("{{{"):
			n, err = p.parseMustache("{{{", "}}}", true)
		case p.has("{{"):
			n, err = p.parseMustache("{{", "}}", false)
		case p.has("<!--"):
			end := strings.Index(p.src[p.pos:], "-->")
			if end < 0 {
				return nil, p.errorf("unterminated HTML comment")
			}
			nodes = appendText(nodes, p.src[p.pos:p.pos+end+3])
			p.pos += end + 3
			continue
		case p.startsElement():
			n, err = p.parseElement()
		default:
			nodes = appendText(nodes, p.readText())
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func appendText(nodes []Node, s string) []Node {
	if s == "" {
		return nodes
	}
	if len(nodes) > 0 {
		if t, ok := nodes[len(nodes)-1].(*Text); ok {
			t.Value += s
			return nodes
		}
	}
	return append(nodes, &Text{Value: s})
}

func (p *parser) startsElement() bool {
	if !p.has("<") || p.pos+1 >= len(p.src) {
		return false
	}
	c := rune(p.src[p.pos+1])
	return unicode.IsLetter(c) || c == '@' || c == ':'
}

// readText consumes text up to the next mustache or tag. A '<' that does not
// start a tag is consumed as text.
func (p *parser) readText() string {
	start := p.pos
	if p.has("<") {
		p.pos++
	}
	for !p.eof() && !p.has("{{") && !p.has("<") {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseComment(open, close string, long bool) (Node, error) {
	p.pos += len(open)
	end := strings.Index(p.src[p.pos:], close)
	if end < 0 {
		return nil, p.errorf("unterminated comment")
	}
	value := p.src[p.pos : p.pos+end]
	p.pos += end + len(close)
	return &Comment{Value: value, Long: long}, nil
}

func (p *parser) parseMustache(open, close string, trusting bool) (Node, error) {
	p.pos += len(open)
	call, blockParams, err := p.parseCall(close)
	if err != nil {
		return nil, err
	}
	if len(blockParams) > 0 {
		return nil, p.errorf("block params are only allowed on blocks and elements")
	}
	if err := p.expect(close); err != nil {
		return nil, err
	}
	return &Mustache{Call: call, Trusting: trusting}, nil
}

func (p *parser) parseBlock() (Node, error) {
	p.pos += len("{{#")
	call, blockParams, err := p.parseCall("}}")
	if err != nil {
		return nil, err
	}
	if err := p.expect("}}"); err != nil {
		return nil, err
	}
	name := call.HeadName()
	if name == "" {
		return nil, p.errorf("block must start with a helper name")
	}
	b := &Block{Call: call, BlockParams: blockParams}
	if err := p.parseBlockRest(b, name); err != nil {
		return nil, err
	}
	return b, nil
}

// parseBlockRest reads the program, an optional inverse and the close tag.
// An {{else name ...}} inverse becomes a chained block sharing the close tag.
func (p *parser) parseBlockRest(b *Block, name string) error {
	program, err := p.parseContent()
	if err != nil {
		return err
	}
	b.Program = program

	if p.isElse() {
		p.pos += len("{{else")
		p.skipSpace()
		b.HasInverse = true
		if p.has("}}") {
			p.pos += 2
			inverse, err := p.parseContent()
			if err != nil {
				return err
			}
			b.Inverse = inverse
		} else {
			call, blockParams, err := p.parseCall("}}")
			if err != nil {
				return err
			}
			if err := p.expect("}}"); err != nil {
				return err
			}
			chained := &Block{Call: call, BlockParams: blockParams, Chained: true}
			b.Inverse = []Node{chained}
			return p.parseBlockRest(chained, name)
		}
	}

	if !p.has("{{/") {
		return p.errorf("unclosed block {{#%s}}", name)
	}
	p.pos += len("{{/")
	p.skipSpace()
	end := strings.Index(p.src[p.pos:], "}}")
	if end < 0 {
		return p.errorf("unterminated block close")
	}
	closeName := strings.TrimSpace(p.src[p.pos : p.pos+end])
	if closeName != name {
		return p.errorf("block {{#%s}} closed by {{/%s}}", name, closeName)
	}
	p.pos += end + 2
	return nil
}

// parseCall reads `path params hash as |bp|` up to, not including, close.
func (p *parser) parseCall(close string) (Call, []string, error) {
	var (
		call        Call
		blockParams []string
	)
	p.skipSpace()
	if p.has(close) {
		return call, nil, p.errorf("empty mustache")
	}
	head, err := p.parseExpr()
	if err != nil {
		return call, nil, err
	}
	call.Path = head

	for {
		p.skipSpace()
		if p.eof() {
			return call, nil, p.errorf("unterminated mustache, expected %q", close)
		}
		if p.has(close) {
			return call, blockParams, nil
		}
		if p.hasBlockParams() {
			bp, err := p.parseBlockParams()
			if err != nil {
				return call, nil, err
			}
			blockParams = bp
			continue
		}
		if blockParams != nil {
			return call, nil, p.errorf("block params must come last")
		}
		if key, ok := p.peekHashKey(); ok {
			p.pos += len(key) + 1
			p.skipSpace()
			value, err := p.parseExpr()
			if err != nil {
				return call, nil, err
			}
			call.Hash = append(call.Hash, Pair{Key: key, Value: value})
			continue
		}
		if len(call.Hash) > 0 {
			return call, nil, p.errorf("positional params must come before hash arguments")
		}
		param, err := p.parseExpr()
		if err != nil {
			return call, nil, err
		}
		call.Params = append(call.Params, param)
	}
}

func (p *parser) hasBlockParams() bool {
	if !p.has("as") {
		return false
	}
	rest := strings.TrimLeft(p.src[p.pos+2:], " \t\r\n")
	return len(rest) < len(p.src[p.pos+2:]) && strings.HasPrefix(rest, "|")
}

func (p *parser) parseBlockParams() ([]string, error) {
	p.pos += 2
	p.skipSpace()
	if err := p.expect("|"); err != nil {
		return nil, err
	}
	end := strings.IndexByte(p.src[p.pos:], '|')
	if end < 0 {
		return nil, p.errorf("unterminated block params")
	}
	names := strings.Fields(p.src[p.pos : p.pos+end])
	p.pos += end + 1
	if len(names) == 0 {
		return nil, p.errorf("empty block params")
	}
	return names, nil
}

func isIdentByte(c byte) bool {
	return !isSpace(c) && !strings.ContainsRune("}()=|'\"~", rune(c))
}

// peekHashKey reports a `key=` prefix without consuming it.
func (p *parser) peekHashKey() (string, bool) {
	i := p.pos
	for i < len(p.src) && isIdentByte(p.src[i]) && p.src[i] != '.' {
		i++
	}
	if i == p.pos || i >= len(p.src) || p.src[i] != '=' {
		return "", false
	}
	return p.src[p.pos:i], true
}

func (p *parser) parseExpr() (Expr, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of template")
	}
	switch c := p.src[p.pos]; {
	case c == '(':
		p.pos++
		call, blockParams, err := p.parseCall(")")
		if err != nil {
			return nil, err
		}
		if len(blockParams) > 0 {
			return nil, p.errorf("block params are not allowed in subexpressions")
		}
		p.pos++
		return &SubExpr{Call: call}, nil
	case c == '"' || c == '\'':
		return p.parseString(c)
	}

	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	if word == "" {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	switch word {
	case "true":
		return &BoolLit{Value: true}, nil
	case "false":
		return &BoolLit{Value: false}, nil
	case "null":
		return &NullLit{}, nil
	case "undefined":
		return &UndefinedLit{}, nil
	}
	if isNumber(word) {
		return &NumberLit{Raw: word}, nil
	}
	if strings.HasPrefix(word, ".") || strings.HasSuffix(word, ".") || strings.Contains(word, "..") {
		p.pos = start
		return nil, p.errorf("invalid path %q", word)
	}
	return ParsePath(word), nil
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	return !strings.HasSuffix(s, ".")
}

func (p *parser) parseString(quote byte) (Expr, error) {
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == quote:
			sb.WriteByte(quote)
			p.pos += 2
		case c == quote:
			p.pos++
			return &StringLit{Value: sb.String()}, nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errorf("unterminated string literal")
}

func (p *parser) parseElement() (Node, error) {
	p.pos++
	start := p.pos
	for !p.eof() && !isSpace(p.src[p.pos]) && !p.has("/>") && !p.has(">") {
		p.pos++
	}
	el := &Element{Tag: p.src[start:p.pos]}

	for {
		p.skipSpace()
		switch {
		case p.eof():
			return nil, p.errorf("unterminated <%s> tag", el.Tag)
		case p.has("/>"):
			p.pos += 2
			el.SelfClosing = true
			return el, nil
		case p.has(">"):
			p.pos++
			if voidElements[el.Tag] {
				return el, nil
			}
			children, err := p.parseContent()
			if err != nil {
				return nil, err
			}
			el.Children = children
			if !p.has("</") {
				return nil, p.errorf("unclosed element <%s>", el.Tag)
			}
			p.pos += 2
			end := strings.IndexByte(p.src[p.pos:], '>')
			if end < 0 {
				return nil, p.errorf("unterminated closing tag")
			}
			closeTag := strings.TrimSpace(p.src[p.pos : p.pos+end])
			if closeTag != el.Tag {
				return nil, p.errorf("element <%s> closed by </%s>", el.Tag, closeTag)
			}
			p.pos += end + 1
			return el, nil
		case p.has("{{"):
			p.pos += 2
			call, blockParams, err := p.parseCall("}}")
			if err != nil {
				return nil, err
			}
			if len(blockParams) > 0 {
				return nil, p.errorf("block params are not allowed in modifiers")
			}
			if err := p.expect("}}"); err != nil {
				return nil, err
			}
			el.Modifiers = append(el.Modifiers, &Mustache{Call: call})
		case p.hasBlockParams():
			bp, err := p.parseBlockParams()
			if err != nil {
				return nil, err
			}
			el.BlockParams = bp
		default:
			attr, err := p.parseAttr()
			if err != nil {
				return nil, err
			}
			el.Attrs = append(el.Attrs, attr)
		}
	}
}

func (p *parser) parseAttr() (*Attr, error) {
	start := p.pos
	for !p.eof() && !isSpace(p.src[p.pos]) && p.src[p.pos] != '=' && !p.has(">") && !p.has("/>") {
		p.pos++
	}
	attr := &Attr{Name: p.src[start:p.pos]}
	if attr.Name == "" {
		return nil, p.errorf("expected attribute name")
	}
	if p.eof() || p.src[p.pos] != '=' {
		return attr, nil
	}
	p.pos++

	switch {
	case p.has("\""), p.has("'"):
		value, err := p.parseQuotedValue(p.src[p.pos])
		if err != nil {
			return nil, err
		}
		attr.Value = value
	case p.has("{{"):
		p.pos += 2
		call, blockParams, err := p.parseCall("}}")
		if err != nil {
			return nil, err
		}
		if len(blockParams) > 0 {
			return nil, p.errorf("block params are not allowed in attribute values")
		}
		if err := p.expect("}}"); err != nil {
			return nil, err
		}
		attr.Value = &Mustache{Call: call}
	default:
		vstart := p.pos
		for !p.eof() && !isSpace(p.src[p.pos]) && !p.has(">") && !p.has("/>") {
			p.pos++
		}
		attr.Value = &Text{Value: p.src[vstart:p.pos]}
	}
	return attr, nil
}

// parseQuotedValue returns a *Text for plain values and a *Concat when the
// value interpolates mustaches.
func (p *parser) parseQuotedValue(quote byte) (Node, error) {
	p.pos++
	var parts []Node
	interpolated := false
	for {
		if p.eof() {
			return nil, p.errorf("unterminated attribute value")
		}
		if p.src[p.pos] == quote {
			p.pos++
			break
		}
		if p.has("{{") {
			p.pos += 2
			call, _, err := p.parseCall("}}")
			if err != nil {
				return nil, err
			}
			if err := p.expect("}}"); err != nil {
				return nil, err
			}
			parts = append(parts, &Mustache{Call: call})
			interpolated = true
			continue
		}
		start := p.pos
		for !p.eof() && p.src[p.pos] != quote && !p.has("{{") {
			p.pos++
		}
		parts = appendText(parts, p.src[start:p.pos])
	}
	if !interpolated {
		if len(parts) == 0 {
			return &Text{}, nil
		}
		return parts[0], nil
	}
	return &Concat{Parts: parts}, nil
}
