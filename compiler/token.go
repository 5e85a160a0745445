package compiler

import (
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
)

// TokenKind classifies one lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokString
	TokWord
)

// Token is one lexeme plus its source position, for error reporting.
type Token struct {
	Kind Kind
	Text string
	Num  float32
	Pos  scanner.Position
}

// Kind is an alias kept for readability at call sites (token.Kind).
type Kind = TokenKind

// isWordRune accepts any rune that isn't whitespace or a double quote (which
// starts a string literal): TACIT words are
// whitespace-delimited and may otherwise contain digits, punctuation, or
// symbols (":", ";", "+", "-", "'", "@", ...), generalizing the teacher
// assembler's isIdentRune (asm/parser.go) from "letters, symbols, punct,
// digits" to "anything but a space", since TACIT's word set is far less
// constrained than an assembly mnemonic set.
func isWordRune(ch rune, i int) bool {
	return !unicode.IsSpace(ch) && ch != '"' && ch != scanner.EOF
}

// Tokenizer wraps text/scanner.Scanner the way asm/parser.go does, adding
// Go-style double-quoted string recognition for TACIT string literals.
type Tokenizer struct {
	s    scanner.Scanner
	errs []string
}

// NewTokenizer creates a Tokenizer reading src, reporting name as the
// scanner position's filename.
func NewTokenizer(name, src string) *Tokenizer {
	t := &Tokenizer{}
	t.s.Init(strings.NewReader(src))
	t.s.Filename = name
	t.s.Mode = scanner.ScanIdents | scanner.ScanStrings
	t.s.IsIdentRune = isWordRune
	t.s.Error = func(_ *scanner.Scanner, msg string) { t.errs = append(t.errs, msg) }
	return t
}

// Next returns the next token, or a TokEOF token at end of input.
func (t *Tokenizer) Next() Token {
	tok := t.s.Scan()
	pos := t.s.Position
	if !pos.IsValid() {
		pos = t.s.Pos()
	}
	switch tok {
	case scanner.EOF:
		return Token{Kind: TokEOF, Pos: pos}
	case scanner.String:
		text := t.s.TokenText()
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			unquoted = strings.Trim(text, "\"")
		}
		return Token{Kind: TokString, Text: unquoted, Pos: pos}
	default:
		text := t.s.TokenText()
		if n, err := strconv.ParseFloat(text, 32); err == nil {
			return Token{Kind: TokNumber, Text: text, Num: float32(n), Pos: pos}
		}
		return Token{Kind: TokWord, Text: text, Pos: pos}
	}
}

// Errors returns any low-level scan errors accumulated so far (unterminated
// strings, invalid escapes).
func (t *Tokenizer) Errors() []string { return t.errs }
