// Package pgnio implements a PGN reader. Every game is turned into one or
// more lines of structured moves: the main line plus one line per recursive
// annotation variation, each replayed from the initial position.
package pgnio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/move"
	"github.com/domino14/repopt/position"
)

var (
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrUnterminated       = errors.New("unterminated construct")
	ErrNonStandardStart   = errors.New("game does not start from the initial position")
	ErrVariationPlacement = errors.New("variation without a preceding move")
)

// ParseError pinpoints where a PGN stream stopped making sense. One bad
// token fails the whole stream.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgn line %d near %q: %v", e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Game is one line of play with the tags of the game it came from.
type Game struct {
	Tags  map[string]string
	Moves []move.Structured
}

var (
	reTagPair    = regexp.MustCompile(`^\[\s*(?P<name>[A-Za-z0-9_]+)\s+"(?P<value>(?:[^"\\]|\\.)*)"\s*\]$`)
	reMoveNumber = regexp.MustCompile(`^[0-9]+(?:\.+|$)`)
)

// line is a sequence of moves; vars[i] holds the variations that replace
// moves[i].
type line struct {
	moves []move.Structured
	vars  map[int][]*line
}

func (l *line) expand(prefix []move.Structured, out *[][]move.Structured) {
	full := make([]move.Structured, 0, len(prefix)+len(l.moves))
	full = append(full, prefix...)
	full = append(full, l.moves...)
	if len(full) > 0 {
		*out = append(*out, full)
	}
	for i := range l.moves {
		for _, v := range l.vars[i] {
			branch := make([]move.Structured, 0, len(prefix)+i)
			branch = append(branch, prefix...)
			branch = append(branch, l.moves[:i]...)
			v.expand(branch, out)
		}
	}
}

type parser struct {
	games []Game
	tags  map[string]string
	stack []*line
	// started is set once the current game has any tag or move.
	started bool
	line    int
}

func newParser() *parser {
	p := &parser{line: 1}
	p.reset()
	return p
}

func (p *parser) reset() {
	p.tags = make(map[string]string)
	p.stack = []*line{{vars: make(map[int][]*line)}}
	p.started = false
}

func (p *parser) errorf(token string, err error) error {
	return &ParseError{Line: p.line, Token: token, Err: err}
}

func (p *parser) inMovetext() bool {
	return len(p.stack) > 1 || len(p.stack[0].moves) > 0
}

func (p *parser) finishGame(token string) error {
	if len(p.stack) > 1 {
		return p.errorf(token, fmt.Errorf("%w: variation", ErrUnterminated))
	}
	if !p.started {
		return nil
	}
	if fen, ok := p.tags["FEN"]; ok {
		if position.Canonicalize(fen) != position.Canonicalize(board.StartingFEN) {
			return p.errorf(fen, ErrNonStandardStart)
		}
	}
	var lines [][]move.Structured
	p.stack[0].expand(nil, &lines)
	for _, mvs := range lines {
		p.games = append(p.games, Game{Tags: p.tags, Moves: mvs})
	}
	p.reset()
	return nil
}

func (p *parser) addTag(raw string) error {
	m := reTagPair.FindStringSubmatch(raw)
	if m == nil {
		return p.errorf(raw, ErrUnexpectedToken)
	}
	// A tag section after movetext starts the next game.
	if p.inMovetext() {
		if err := p.finishGame(raw); err != nil {
			return err
		}
	}
	value := strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[2])
	p.tags[m[1]] = value
	p.started = true
	return nil
}

func (p *parser) addSymbol(sym string) error {
	switch sym {
	case "1-0", "0-1", "1/2-1/2", "*":
		p.started = true
		return p.finishGame(sym)
	}
	rest := reMoveNumber.ReplaceAllString(sym, "")
	rest = strings.TrimLeft(rest, ".")
	if rest == "" {
		return nil
	}
	mv, err := move.ParseSAN(rest)
	if err != nil {
		return p.errorf(sym, err)
	}
	top := p.stack[len(p.stack)-1]
	top.moves = append(top.moves, mv)
	p.started = true
	return nil
}

func (p *parser) openVariation() error {
	top := p.stack[len(p.stack)-1]
	idx := len(top.moves) - 1
	if idx < 0 {
		return p.errorf("(", ErrVariationPlacement)
	}
	v := &line{vars: make(map[int][]*line)}
	top.vars[idx] = append(top.vars[idx], v)
	p.stack = append(p.stack, v)
	return nil
}

func (p *parser) closeVariation() error {
	if len(p.stack) < 2 {
		return p.errorf(")", ErrUnexpectedToken)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '(', ')', ';', '[', ']':
		return true
	}
	return false
}

// tagEnd finds the closing bracket of a tag pair, skipping over brackets
// inside the quoted value.
func tagEnd(s string) int {
	inQuote := false
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ']':
			if !inQuote {
				return i
			}
		case '\n':
			if !inQuote {
				return -1
			}
		}
	}
	return -1
}

func (p *parser) parse(text string) error {
	lineStart := true
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\n':
			p.line++
			lineStart = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			continue
		case c == '%' && lineStart:
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		lineStart = false

		switch c {
		case '[':
			end := tagEnd(text[i:])
			if end < 0 {
				return p.errorf(text[i:min(i+20, len(text))], fmt.Errorf("%w: tag pair", ErrUnterminated))
			}
			if err := p.addTag(text[i : i+end+1]); err != nil {
				return err
			}
			i += end + 1
		case '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return p.errorf("{", fmt.Errorf("%w: comment", ErrUnterminated))
			}
			p.line += strings.Count(text[i:i+end], "\n")
			i += end + 1
		case ';':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case '(':
			if err := p.openVariation(); err != nil {
				return err
			}
			i++
		case ')':
			if err := p.closeVariation(); err != nil {
				return err
			}
			i++
		case '$':
			i++
			for i < len(text) && text[i] >= '0' && text[i] <= '9' {
				i++
			}
		case '}', ']':
			return p.errorf(string(c), ErrUnexpectedToken)
		default:
			j := i
			for j < len(text) && !isDelimiter(text[j]) {
				j++
			}
			if err := p.addSymbol(text[i:j]); err != nil {
				return err
			}
			i = j
		}
	}
	return p.finishGame("EOF")
}

func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}
	// PGN's traditional encoding.
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Read parses every game in a PGN stream.
func Read(r io.Reader) ([]Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}
	p := newParser()
	if err := p.parse(text); err != nil {
		return nil, err
	}
	return p.games, nil
}

// ReadFile parses a PGN file.
func ReadFile(filename string) ([]Game, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	games, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	log.Debug().Str("file", filename).Int("lines", len(games)).Msg("parsed-pgn")
	return games, nil
}
