// Package group tracks RTF group nesting and the destination each group introduces.
package group

import (
	"github.com/wudi/rtfsig/recovery"
	"github.com/wudi/rtfsig/scanner"
)

type Destination string

const (
	Unknown     Destination = "unknown"
	Picture     Destination = "picture"
	DocInfo     Destination = "doc info"
	DocInfoTag  Destination = "doc info tag"
	RsidTable   Destination = "rsid table"
	Object      Destination = "object"
	ObjectData  Destination = "object data"
	ObjectClass Destination = "object class"
	BlipUID     Destination = "blip uid"
	FontTable   Destination = "font table"
	ColorTable  Destination = "color table"
	Stylesheet  Destination = "stylesheet"
)

var destinations = map[string]Destination{
	"pict":       Picture,
	"info":       DocInfo,
	"docinfo":    DocInfo,
	"rsidtbl":    RsidTable,
	"object":     Object,
	"objdata":    ObjectData,
	"objclass":   ObjectClass,
	"blipuid":    BlipUID,
	"fonttbl":    FontTable,
	"colortbl":   ColorTable,
	"stylesheet": Stylesheet,
}

// InfoTags are the document information words whose group text is captured.
var InfoTags = map[string]bool{
	"title":     true,
	"subject":   true,
	"author":    true,
	"manager":   true,
	"company":   true,
	"operator":  true,
	"category":  true,
	"keywords":  true,
	"comment":   true,
	"doccomm":   true,
	"hlinkbase": true,
}

// Frame is one open group.
type Frame struct {
	Destination Destination
	Word        string // first control word of the group, empty if none
	Ignorable   bool   // group started with \*
	Depth       int    // 1 for the outermost group
	Pos         int64  // offset of the opening brace
}

// Tracker maintains the stack of open groups while tokens stream past.
type Tracker struct {
	stack    []Frame
	pending  bool
	opens    int
	closes   int
	recovery recovery.Strategy
}

func NewTracker(rec recovery.Strategy) *Tracker {
	return &Tracker{recovery: rec}
}

// Observe updates the stack for tok. For a group close it returns the popped
// frame and true; excess closes are reported and ignored.
func (t *Tracker) Observe(tok scanner.Token) (Frame, bool) {
	switch tok.Type {
	case scanner.TokenGroupOpen:
		t.opens++
		t.stack = append(t.stack, Frame{Destination: Unknown, Depth: len(t.stack) + 1, Pos: tok.Pos})
		t.pending = true
	case scanner.TokenGroupClose:
		t.pending = false
		if len(t.stack) == 0 {
			t.report(recovery.ErrUnmatchedClose, tok.Pos)
			return Frame{}, false
		}
		t.closes++
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		return top, true
	case scanner.TokenControlSymbol:
		if t.pending && tok.Word == "*" {
			t.stack[len(t.stack)-1].Ignorable = true
			return Frame{}, false
		}
		t.pending = false
	case scanner.TokenControlWord:
		if t.pending {
			t.label(tok.Word)
		}
		t.pending = false
	case scanner.TokenText:
		// whitespace between the brace and the first word does not end labelling
		if t.pending && !isBlank(tok.Bytes) {
			t.pending = false
		}
	default:
		t.pending = false
	}
	return Frame{}, false
}

func (t *Tracker) label(word string) {
	top := &t.stack[len(t.stack)-1]
	top.Word = word
	if dest, ok := destinations[word]; ok {
		top.Destination = dest
		return
	}
	if InfoTags[word] && len(t.stack) > 1 && t.stack[len(t.stack)-2].Destination == DocInfo {
		top.Destination = DocInfoTag
	}
}

// Finish reports groups left open at end of input and returns how many there were.
func (t *Tracker) Finish(end int64) int {
	depth := len(t.stack)
	if depth > 0 {
		t.report(recovery.ErrDanglingGroups, end)
	}
	return depth
}

// Depth is the current nesting depth.
func (t *Tracker) Depth() int { return len(t.stack) }

// Counts returns the number of opened and matched closed groups seen so far.
func (t *Tracker) Counts() (opens, closes int) { return t.opens, t.closes }

// Innermost returns the innermost open frame.
func (t *Tracker) Innermost() (Frame, bool) {
	if len(t.stack) == 0 {
		return Frame{}, false
	}
	return t.stack[len(t.stack)-1], true
}

// Parent returns the frame enclosing the innermost one.
func (t *Tracker) Parent() (Frame, bool) {
	if len(t.stack) < 2 {
		return Frame{}, false
	}
	return t.stack[len(t.stack)-2], true
}

// Within reports whether any open frame carries dest.
func (t *Tracker) Within(dest Destination) bool {
	_, ok := t.Nearest(dest)
	return ok
}

// Nearest returns the innermost open frame carrying dest.
func (t *Tracker) Nearest(dest Destination) (Frame, bool) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].Destination == dest {
			return t.stack[i], true
		}
	}
	return Frame{}, false
}

func (t *Tracker) report(err error, offset int64) {
	if t.recovery == nil {
		return
	}
	t.recovery.OnError(err, recovery.Location{ByteOffset: offset, Depth: len(t.stack), Component: "group"})
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\r' && c != '\n' && c != '\t' {
			return false
		}
	}
	return true
}
