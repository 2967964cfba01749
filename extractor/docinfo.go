package extractor

import (
	"strings"

	"github.com/wudi/rtfsig/group"
	"github.com/wudi/rtfsig/scanner"
)

// DocInfoTag is one tag group from the \info destination, e.g. {\author blue}.
type DocInfoTag struct {
	Name string
	Raw  string // the group exactly as it appears in the document
	Text string // decoded payload
}

type docInfoExtractor struct {
	data     []byte
	codePage int64
	uc       int64
	current  *textBuilder
	tags     []DocInfoTag
}

func newDocInfoExtractor(data []byte) *docInfoExtractor {
	return &docInfoExtractor{data: data, codePage: defaultCodePage, uc: 1}
}

func (e *docInfoExtractor) Token(tok scanner.Token, groups *group.Tracker) {
	if tok.Type == scanner.TokenControlWord && tok.HasParam {
		switch tok.Word {
		case "ansicpg":
			e.codePage = tok.Param
		case "uc":
			if !groups.Within(group.DocInfo) && tok.Param >= 0 {
				e.uc = tok.Param
			}
		}
	}
	inner, ok := groups.Innermost()
	if !ok || inner.Destination != group.DocInfoTag {
		return
	}
	if e.current == nil {
		e.current = newTextBuilder(codePage(e.codePage), e.uc)
	}
	e.current.add(tok)
}

func (e *docInfoExtractor) Close(frame group.Frame, tok scanner.Token, _ *group.Tracker) {
	if frame.Destination != group.DocInfoTag {
		return
	}
	b := e.current
	e.current = nil
	if b == nil {
		return
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return
	}
	e.tags = append(e.tags, DocInfoTag{
		Name: frame.Word,
		Raw:  string(e.data[frame.Pos:tok.End]),
		Text: text,
	})
}

func (e *docInfoExtractor) collect(res *Result) { res.DocInfo = e.tags }
