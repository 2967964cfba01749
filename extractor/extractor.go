package extractor

import (
	"errors"
	"io"

	"github.com/wudi/rtfsig/group"
	"github.com/wudi/rtfsig/observability"
	"github.com/wudi/rtfsig/recovery"
	"github.com/wudi/rtfsig/scanner"
)

// Config controls a single extraction pass.
type Config struct {
	// ExcludeRisky skips the document information group, whose values are
	// frequently shared by unrelated documents.
	ExcludeRisky bool
	Recovery     recovery.Strategy
	Logger       observability.Logger
}

// Result holds everything collected from one document.
type Result struct {
	Rsids        []*RsidRecord
	HasRsidTable bool
	Pictures     []Picture
	DocInfo      []DocInfoTag
	Objects      []EmbeddedObject
	NonPrintable bool // bytes outside printable ASCII appear outside \bin payloads

	Tokens        int
	GroupsOpened  int
	GroupsClosed  int
	DanglingDepth int
}

// visitor is implemented by each field extractor. Token sees every token
// that does not close a group; Close sees every frame popped by a close.
type visitor interface {
	Token(tok scanner.Token, groups *group.Tracker)
	Close(frame group.Frame, tok scanner.Token, groups *group.Tracker)
	collect(res *Result)
}

// Run tokenizes data once and feeds every token to each extractor.
// Structural anomalies are handed to cfg.Recovery and never stop the pass.
func Run(data []byte, cfg Config) *Result {
	log := cfg.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	rec := cfg.Recovery
	if rec == nil {
		rec = recovery.NewLenientStrategy(log)
	}

	visitors := []visitor{
		&printableCheck{data: data},
		newRsidExtractor(),
		newImageExtractor(),
		newObjectExtractor(),
	}
	if !cfg.ExcludeRisky {
		visitors = append(visitors, newDocInfoExtractor(data))
	}

	res := &Result{}
	s := scanner.New(data, scanner.Config{Recovery: rec})
	groups := group.NewTracker(rec)
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// the in-memory scanner only reports EOF; stop on anything else
			log.Warn("tokenizer stopped", observability.Int64("offset", s.Position()), observability.Error("error", err))
			break
		}
		res.Tokens++
		if frame, closed := groups.Observe(tok); closed {
			for _, v := range visitors {
				v.Close(frame, tok, groups)
			}
			continue
		}
		for _, v := range visitors {
			v.Token(tok, groups)
		}
	}
	res.DanglingDepth = groups.Finish(int64(len(data)))
	res.GroupsOpened, res.GroupsClosed = groups.Counts()
	for _, v := range visitors {
		v.collect(res)
	}

	log.Debug("extraction finished",
		observability.Int("tokens", res.Tokens),
		observability.Int("rsids", len(res.Rsids)),
		observability.Int("pictures", len(res.Pictures)),
		observability.Int("docinfo", len(res.DocInfo)),
		observability.Int("objects", len(res.Objects)),
		observability.Int("dangling", res.DanglingDepth),
	)
	return res
}

// printableCheck flags bytes outside the printable ASCII range. Binary
// payloads are excluded since they are expected to hold arbitrary bytes.
type printableCheck struct {
	data  []byte
	found bool
}

func (p *printableCheck) Token(tok scanner.Token, _ *group.Tracker) {
	if p.found || tok.Type == scanner.TokenBinary {
		return
	}
	for _, c := range p.data[tok.Pos:tok.End] {
		if !isPrintable(c) {
			p.found = true
			return
		}
	}
}

func (p *printableCheck) Close(_ group.Frame, tok scanner.Token, groups *group.Tracker) {
	p.Token(tok, groups)
}

func (p *printableCheck) collect(res *Result) { res.NonPrintable = p.found }

func isPrintable(c byte) bool {
	return (c >= 0x20 && c < 0x7f) || c == '\t' || c == '\n' || c == '\r' || c == 0x0b || c == 0x0c
}
