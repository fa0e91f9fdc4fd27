package style

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "KindSelector", Pattern: `#[a-z]+`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.\d+|\d+|\.\d+)(?:pt|mm|cm|in|px|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[*,:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sheetParser = participle.MustBuild[Stylesheet](
		participle.Lexer(sheetLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
	)
)

// Stylesheet is the root AST node of a stylesheet file.
type Stylesheet struct {
	Rules []*Rule `parser:"@@*"`
}

// Rule is a selector list with its declarations.
type Rule struct {
	Pos          lexer.Position `parser:"" json:"-"`
	Selectors    []*Selector    `parser:"@@ ( ',' @@ )*"`
	Declarations []*Declaration `parser:"'{' ( @@ ';'* )* '}'"`
}

// Selector matches an element name, a node kind (#text, #comment, #pi,
// #include) or anything (*), optionally addressing ::before or ::after.
type Selector struct {
	Name   string `parser:"( @'*' | @Ident | @KindSelector )"`
	Pseudo string `parser:"( ':' ':' @Ident )?"`
}

func (s *Selector) String() string {
	if s.Pseudo == "" {
		return s.Name
	}
	return s.Name + "::" + s.Pseudo
}

// Declaration is one property assignment.
type Declaration struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Property string         `parser:"@Ident ':'"`
	Values   []*Term        `parser:"@@+"`
}

// Term is one value token.
type Term struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw returns the token text (strings unquoted).
func (t *Term) Raw() string {
	switch {
	case t.String != nil:
		return string(*t.String)
	case t.Number != nil:
		return *t.Number
	case t.Ident != nil:
		return *t.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// ParseAST parses stylesheet text into its syntax tree.
func ParseAST(r io.Reader) (*Stylesheet, error) {
	return sheetParser.Parse("", r)
}

// Parse parses and compiles a stylesheet. Unknown properties and invalid
// values are dropped and reported in Sheet.Warnings.
func Parse(r io.Reader) (*Sheet, error) {
	ast, err := ParseAST(r)
	if err != nil {
		return nil, fmt.Errorf("解析样式表失败: %w", err)
	}
	return Compile(ast, false)
}

// ParseString is Parse over a string.
func ParseString(input string) (*Sheet, error) { return Parse(strings.NewReader(input)) }

// ParseStrict is Parse that fails on the first unknown property or invalid value.
func ParseStrict(r io.Reader) (*Sheet, error) {
	ast, err := ParseAST(r)
	if err != nil {
		return nil, fmt.Errorf("解析样式表失败: %w", err)
	}
	return Compile(ast, true)
}
