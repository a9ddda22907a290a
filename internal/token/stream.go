package token

import "github.com/linxc-lang/linxc/internal/logger"

// Lexeme is a fully materialized token: unlike the lexer's internal Token,
// it carries its own text/value so it can be copied freely once lexing has
// finished (e.g. into a macro body, or across a macro substitution).
type Lexeme struct {
	Kind             T
	Range            logger.Range
	Text             string
	StringValue      string
	Number           float64
	HasNewlineBefore bool
}

func (l Lexeme) IsEOF() bool { return l.Kind == TEndOfFile }

// Stream is an ordered sequence of Lexemes consumed by the parser via Next,
// Peek and Back — spec.md §3 says "one-token pushback is sufficient", which
// this implements with a single saved cursor position rather than a real
// pushback buffer.
type Stream struct {
	lexemes []Lexeme
	pos     int
}

func NewStream(lexemes []Lexeme) *Stream {
	return &Stream{lexemes: lexemes}
}

func (s *Stream) Next() Lexeme {
	l := s.Peek()
	if s.pos < len(s.lexemes) {
		s.pos++
	}
	return l
}

func (s *Stream) Peek() Lexeme {
	if s.pos >= len(s.lexemes) {
		if len(s.lexemes) == 0 {
			return Lexeme{Kind: TEndOfFile}
		}
		return Lexeme{Kind: TEndOfFile, Range: s.lexemes[len(s.lexemes)-1].Range}
	}
	return s.lexemes[s.pos]
}

func (s *Stream) PeekAt(offsetFromCurrent int) Lexeme {
	i := s.pos + offsetFromCurrent
	if i < 0 || i >= len(s.lexemes) {
		return Lexeme{Kind: TEndOfFile}
	}
	return s.lexemes[i]
}

// Back rewinds the cursor by one token. Only one level of pushback is
// guaranteed to be correct, matching spec.md §3.
func (s *Stream) Back() {
	if s.pos > 0 {
		s.pos--
	}
}

func (s *Stream) Mark() int      { return s.pos }
func (s *Stream) Reset(mark int) { s.pos = mark }
