package scanner

import (
	"errors"
	"io"
	"strconv"

	"github.com/wudi/rtfsig/recovery"
)

type TokenType int

const (
	TokenControlWord   TokenType = iota // '\word' with optional numeric parameter
	TokenControlSymbol                  // '\*', '\~', '\'hh' and other non-letter escapes
	TokenGroupOpen                      // '{'
	TokenGroupClose                     // '}'
	TokenText                           // plain text run
	TokenBinary                         // raw payload following '\binN'
)

func (t TokenType) String() string {
	switch t {
	case TokenControlWord:
		return "control word"
	case TokenControlSymbol:
		return "control symbol"
	case TokenGroupOpen:
		return "group open"
	case TokenGroupClose:
		return "group close"
	case TokenText:
		return "text"
	case TokenBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of an RTF document. Pos and End are byte offsets
// into the scanned buffer; End is exclusive and includes a consumed delimiter space.
type Token struct {
	Type     TokenType
	Pos      int64
	End      int64
	Word     string // control word name, or the symbol character
	Param    int64
	HasParam bool
	Bytes    []byte // text run or binary payload
}

type Scanner interface {
	Next() (Token, error)
	Position() int64
	Seek(offset int64) error
}

type Config struct {
	// MaxWordLength caps control word names; longer letter runs are split.
	MaxWordLength int
	Recovery      recovery.Strategy
}

const defaultMaxWordLength = 32

// rtfScanner walks an in-memory RTF document one token at a time.
type rtfScanner struct {
	data []byte
	pos  int64
	cfg  Config
}

// New returns a scanner over data. The buffer is not copied and must not be
// modified while scanning.
func New(data []byte, cfg Config) Scanner {
	if cfg.MaxWordLength <= 0 {
		cfg.MaxWordLength = defaultMaxWordLength
	}
	return &rtfScanner{data: data, cfg: cfg}
}

func (s *rtfScanner) Position() int64 { return s.pos }

func (s *rtfScanner) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return errors.New("seek out of range")
	}
	s.pos = offset
	return nil
}

func (s *rtfScanner) Next() (Token, error) {
	if s.pos >= int64(len(s.data)) {
		return Token{}, io.EOF
	}
	start := s.pos
	switch s.data[s.pos] {
	case '{':
		s.pos++
		return Token{Type: TokenGroupOpen, Pos: start, End: s.pos}, nil
	case '}':
		s.pos++
		return Token{Type: TokenGroupClose, Pos: start, End: s.pos}, nil
	case '\\':
		if s.pos+1 >= int64(len(s.data)) {
			s.pos++
			return Token{Type: TokenText, Pos: start, End: s.pos, Bytes: []byte{'\\'}}, nil
		}
		next := s.data[s.pos+1]
		if isLetter(next) {
			return s.scanControlWord()
		}
		if !isLiteralEscape(next) {
			return s.scanControlSymbol()
		}
	}
	return s.scanText()
}

// scanText accumulates bytes up to the next brace or control sequence.
// Escaped braces and backslashes are unescaped into the run.
func (s *rtfScanner) scanText() (Token, error) {
	start := s.pos
	var out []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if c == '{' || c == '}' {
			break
		}
		if c == '\\' {
			if s.pos+1 >= int64(len(s.data)) {
				if len(out) > 0 {
					break
				}
				out = append(out, c)
				s.pos++
				break
			}
			next := s.data[s.pos+1]
			if !isLiteralEscape(next) {
				break
			}
			out = append(out, next)
			s.pos += 2
			continue
		}
		out = append(out, c)
		s.pos++
	}
	return Token{Type: TokenText, Pos: start, End: s.pos, Bytes: out}, nil
}

func (s *rtfScanner) scanControlWord() (Token, error) {
	start := s.pos
	s.pos++ // skip '\'
	nameStart := s.pos
	for s.pos < int64(len(s.data)) && isLetter(s.data[s.pos]) && int(s.pos-nameStart) < s.cfg.MaxWordLength {
		s.pos++
	}
	tok := Token{Type: TokenControlWord, Pos: start, Word: string(s.data[nameStart:s.pos])}

	numStart := s.pos
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '-' && s.pos+1 < int64(len(s.data)) && isDigit(s.data[s.pos+1]) {
		s.pos++
	}
	digitStart := s.pos
	for s.pos < int64(len(s.data)) && isDigit(s.data[s.pos]) {
		s.pos++
	}
	if s.pos > digitStart {
		v, err := strconv.ParseInt(string(s.data[numStart:s.pos]), 10, 64)
		if err != nil {
			s.recover(recovery.ErrParamRange, start)
		} else {
			tok.Param = v
			tok.HasParam = true
		}
	}
	if s.pos < int64(len(s.data)) && s.data[s.pos] == ' ' {
		s.pos++
	}
	tok.End = s.pos

	if tok.Word == "bin" && tok.HasParam && tok.Param > 0 {
		return s.scanBinary(tok)
	}
	return tok, nil
}

// scanBinary consumes the payload announced by '\binN' as one opaque token so
// that braces and backslashes inside it never reach the tokenizer.
func (s *rtfScanner) scanBinary(word Token) (Token, error) {
	n := word.Param
	remaining := int64(len(s.data)) - s.pos
	if n > remaining {
		s.recover(recovery.ErrTruncatedBinary, word.Pos)
		n = remaining
	}
	payload := s.data[s.pos : s.pos+n]
	s.pos += n
	return Token{
		Type:     TokenBinary,
		Pos:      word.Pos,
		End:      s.pos,
		Word:     word.Word,
		Param:    word.Param,
		HasParam: true,
		Bytes:    payload,
	}, nil
}

func (s *rtfScanner) scanControlSymbol() (Token, error) {
	start := s.pos
	sym := s.data[s.pos+1]
	s.pos += 2
	tok := Token{Type: TokenControlSymbol, Pos: start, Word: string(sym)}
	if sym == '\'' {
		// \'hh: a byte given as two hex digits. Missing digits leave the symbol bare.
		if s.pos+1 < int64(len(s.data)) && isHex(s.data[s.pos]) && isHex(s.data[s.pos+1]) {
			tok.Param = int64(fromHex(s.data[s.pos])<<4 | fromHex(s.data[s.pos+1]))
			tok.HasParam = true
			s.pos += 2
		}
	}
	tok.End = s.pos
	return tok, nil
}

func (s *rtfScanner) recover(err error, offset int64) {
	if s.cfg.Recovery == nil {
		return
	}
	s.cfg.Recovery.OnError(err, recovery.Location{ByteOffset: offset, Component: "scanner"})
}

func isLetter(c byte) bool        { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool         { return c >= '0' && c <= '9' }
func isLiteralEscape(c byte) bool { return c == '\\' || c == '{' || c == '}' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}
