package extractor

import (
	"strings"

	"github.com/wudi/rtfsig/group"
	"github.com/wudi/rtfsig/scanner"
)

// EmbeddedObject is an \objdata payload, usually an OLE1 stream.
type EmbeddedObject struct {
	Pos         int64
	Class       string
	PayloadSize int
	Entropy     float64
}

type objectExtractor struct {
	classes map[int64]*strings.Builder // keyed by the \object frame
	data    map[int64]*hexSink         // keyed by the \objdata frame
	objects []EmbeddedObject
}

func newObjectExtractor() *objectExtractor {
	return &objectExtractor{
		classes: make(map[int64]*strings.Builder),
		data:    make(map[int64]*hexSink),
	}
}

func (e *objectExtractor) Token(tok scanner.Token, groups *group.Tracker) {
	if tok.Type != scanner.TokenText && tok.Type != scanner.TokenBinary {
		return
	}
	inner, ok := groups.Innermost()
	if !ok {
		return
	}
	switch inner.Destination {
	case group.ObjectClass:
		obj, ok := groups.Nearest(group.Object)
		if !ok || tok.Type != scanner.TokenText {
			return
		}
		b, ok := e.classes[obj.Pos]
		if !ok {
			b = &strings.Builder{}
			e.classes[obj.Pos] = b
		}
		b.Write(tok.Bytes)
	case group.ObjectData:
		sink, ok := e.data[inner.Pos]
		if !ok {
			sink = &hexSink{}
			e.data[inner.Pos] = sink
		}
		if tok.Type == scanner.TokenBinary {
			sink.raw(tok.Bytes)
		} else {
			sink.write(tok.Bytes)
		}
	}
}

func (e *objectExtractor) Close(frame group.Frame, _ scanner.Token, groups *group.Tracker) {
	switch frame.Destination {
	case group.ObjectData:
		sink := e.data[frame.Pos]
		delete(e.data, frame.Pos)
		obj := EmbeddedObject{Pos: frame.Pos}
		if sink != nil {
			obj.PayloadSize = len(sink.out)
			obj.Entropy = entropy(sink.out)
		}
		if parent, ok := groups.Nearest(group.Object); ok {
			if b, ok := e.classes[parent.Pos]; ok {
				obj.Class = strings.TrimSpace(b.String())
			}
		}
		e.objects = append(e.objects, obj)
	case group.Object:
		delete(e.classes, frame.Pos)
	}
}

func (e *objectExtractor) collect(res *Result) { res.Objects = e.objects }
