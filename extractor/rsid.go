package extractor

import (
	"github.com/wudi/rtfsig/group"
	"github.com/wudi/rtfsig/scanner"
)

// RsidPrefixes lists the control words that carry a revision save ID.
var RsidPrefixes = map[string]bool{
	"rsid":     true,
	"rsidroot": true,
	"insrsid":  true,
	"delrsid":  true,
	"charrsid": true,
	"sectrsid": true,
	"pararsid": true,
	"tblrsid":  true,
	"styrsid":  true,
	"crrsid":   true,
}

// RsidRecord is one revision save ID and every control word it was seen under.
type RsidRecord struct {
	Value    int64
	Prefixes []string // discovery order, no duplicates
	InTable  bool     // listed in the \*\rsidtbl destination
}

// HasPrefix reports whether the value was seen under prefix.
func (r *RsidRecord) HasPrefix(prefix string) bool {
	for _, p := range r.Prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

type rsidExtractor struct {
	byValue map[int64]*RsidRecord
	order   []*RsidRecord
	table   bool
}

func newRsidExtractor() *rsidExtractor {
	return &rsidExtractor{byValue: make(map[int64]*RsidRecord)}
}

func (e *rsidExtractor) Token(tok scanner.Token, groups *group.Tracker) {
	if tok.Type != scanner.TokenControlWord {
		return
	}
	if tok.Word == "rsidtbl" {
		e.table = true
		return
	}
	// RSIDs are unsigned session counters; negative values are noise
	if !RsidPrefixes[tok.Word] || !tok.HasParam || tok.Param < 0 {
		return
	}
	rec, ok := e.byValue[tok.Param]
	if !ok {
		rec = &RsidRecord{Value: tok.Param}
		e.byValue[tok.Param] = rec
		e.order = append(e.order, rec)
	}
	if !rec.HasPrefix(tok.Word) {
		rec.Prefixes = append(rec.Prefixes, tok.Word)
	}
	if tok.Word == "rsid" && groups.Within(group.RsidTable) {
		rec.InTable = true
	}
}

func (e *rsidExtractor) Close(group.Frame, scanner.Token, *group.Tracker) {}

func (e *rsidExtractor) collect(res *Result) {
	res.Rsids = e.order
	res.HasRsidTable = e.table
}
