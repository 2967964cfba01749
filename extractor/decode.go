package extractor

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/wudi/rtfsig/scanner"
)

const defaultCodePage = 1252

var codePages = map[int64]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
}

// codePage returns the encoding for an \ansicpg value, falling back to Windows-1252.
func codePage(cp int64) encoding.Encoding {
	if enc, ok := codePages[cp]; ok {
		return enc
	}
	return charmap.Windows1252
}

// textBuilder turns the text tokens of one group into a Unicode string.
// Raw bytes are buffered and decoded with the document code page; \uN
// characters are appended directly and their fallback bytes skipped.
type textBuilder struct {
	enc     encoding.Encoding
	uc      int64
	skip    int64
	pending []byte
	out     strings.Builder
}

func newTextBuilder(enc encoding.Encoding, uc int64) *textBuilder {
	return &textBuilder{enc: enc, uc: uc}
}

func (b *textBuilder) add(tok scanner.Token) {
	switch tok.Type {
	case scanner.TokenText:
		for _, c := range tok.Bytes {
			if c == '\r' || c == '\n' {
				continue
			}
			b.addByte(c)
		}
	case scanner.TokenControlSymbol:
		switch tok.Word {
		case "'":
			if tok.HasParam {
				b.addByte(byte(tok.Param))
			}
		case "~":
			b.addRune('\u00a0')
		case "_":
			b.addRune('\u2011')
		}
	case scanner.TokenControlWord:
		switch tok.Word {
		case "u":
			if tok.HasParam {
				r := tok.Param
				if r < 0 {
					r += 65536
				}
				b.addRune(rune(r))
				b.skip = b.uc
			}
		case "uc":
			if tok.HasParam && tok.Param >= 0 {
				b.uc = tok.Param
			}
		case "tab":
			b.addRune('\t')
		case "par", "line":
			b.addRune('\n')
		}
	}
}

func (b *textBuilder) addByte(c byte) {
	if b.skip > 0 {
		b.skip--
		return
	}
	b.pending = append(b.pending, c)
}

func (b *textBuilder) addRune(r rune) {
	b.flush()
	b.skip = 0
	b.out.WriteRune(r)
}

func (b *textBuilder) flush() {
	if len(b.pending) == 0 {
		return
	}
	decoded, err := b.enc.NewDecoder().Bytes(b.pending)
	if err != nil {
		decoded = b.pending
	}
	b.out.Write(decoded)
	b.pending = b.pending[:0]
}

func (b *textBuilder) String() string {
	b.flush()
	return b.out.String()
}

// hexSink decodes hex digit text into bytes, ignoring anything else.
type hexSink struct {
	out  []byte
	hi   byte
	half bool
}

func (h *hexSink) write(p []byte) {
	for _, c := range p {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			continue
		}
		if h.half {
			h.out = append(h.out, h.hi<<4|v)
			h.half = false
		} else {
			h.hi = v
			h.half = true
		}
	}
}

func (h *hexSink) raw(p []byte) {
	h.out = append(h.out, p...)
}
