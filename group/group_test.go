package group

import (
	"errors"
	"io"
	"testing"

	"github.com/wudi/rtfsig/recovery"
	"github.com/wudi/rtfsig/scanner"
)

// feed runs data through a tracker and returns the frames in close order.
func feed(t *testing.T, data string, tr *Tracker) []Frame {
	t.Helper()
	s := scanner.New([]byte(data), scanner.Config{})
	var closed []Frame
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			return closed
		}
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if f, ok := tr.Observe(tok); ok {
			closed = append(closed, f)
		}
	}
}

func TestTracker_Labels(t *testing.T) {
	tr := NewTracker(nil)
	closed := feed(t, `{\rtf1{\info{\author blue}{\foo x}}{\*\rsidtbl \rsid1}{\pict{\*\picprop}}}`, tr)

	want := []struct {
		dest      Destination
		word      string
		ignorable bool
		depth     int
	}{
		{DocInfoTag, "author", false, 3},
		{Unknown, "foo", false, 3},
		{DocInfo, "info", false, 2},
		{RsidTable, "rsidtbl", true, 2},
		{Unknown, "picprop", true, 3},
		{Picture, "pict", false, 2},
		{Unknown, "rtf", false, 1},
	}
	if len(closed) != len(want) {
		t.Fatalf("expected %d frames, got %d: %+v", len(want), len(closed), closed)
	}
	for i, w := range want {
		f := closed[i]
		if f.Destination != w.dest || f.Word != w.word || f.Ignorable != w.ignorable || f.Depth != w.depth {
			t.Fatalf("frame %d: expected %+v, got %+v", i, w, f)
		}
	}
	opens, closes := tr.Counts()
	if opens != closes || opens != 7 {
		t.Fatalf("expected balanced counts, got %d/%d", opens, closes)
	}

	closed = feed(t, `{\rtf1{\*\docinfo{\operator blue}}}`, NewTracker(nil))
	if len(closed) != 3 || closed[0].Destination != DocInfoTag || closed[1].Destination != DocInfo || !closed[1].Ignorable {
		t.Fatalf("ignorable docinfo not labelled: %+v", closed)
	}
	if tr.Finish(0) != 0 {
		t.Fatalf("expected no dangling groups")
	}
}

func TestTracker_TagOutsideInfoIsNotATag(t *testing.T) {
	closed := feed(t, `{{\author blue}}`, NewTracker(nil))
	if closed[0].Destination != Unknown {
		t.Fatalf("author outside info must stay unknown, got %+v", closed[0])
	}
}

func TestTracker_LabelOnlyFromFirstWord(t *testing.T) {
	closed := feed(t, `{text\pict}{ \pict}`, NewTracker(nil))
	if closed[0].Destination != Unknown {
		t.Fatalf("word after text must not label the group, got %+v", closed[0])
	}
	if closed[1].Destination != Picture {
		t.Fatalf("leading whitespace must not prevent labelling, got %+v", closed[1])
	}
}

func TestTracker_WithinNested(t *testing.T) {
	tr := NewTracker(nil)
	s := scanner.New([]byte(`{\pict{\*\picprop{\sp `), scanner.Config{})
	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		tr.Observe(tok)
	}
	if !tr.Within(Picture) {
		t.Fatalf("expected to be within picture")
	}
	if tr.Within(DocInfo) {
		t.Fatalf("unexpected doc info")
	}
	inner, _ := tr.Innermost()
	if inner.Word != "sp" || inner.Depth != 3 {
		t.Fatalf("unexpected innermost %+v", inner)
	}
	parent, _ := tr.Parent()
	if parent.Word != "picprop" {
		t.Fatalf("unexpected parent %+v", parent)
	}
	pict, ok := tr.Nearest(Picture)
	if !ok || pict.Pos != 0 {
		t.Fatalf("unexpected picture frame %+v", pict)
	}
}

func TestTracker_ExcessClosesNeverUnderflow(t *testing.T) {
	rec := recovery.NewLenientStrategy(nil)
	tr := NewTracker(rec)
	closed := feed(t, `}}{\info}}}`, tr)
	if len(closed) != 1 || closed[0].Destination != DocInfo {
		t.Fatalf("unexpected frames %+v", closed)
	}
	if tr.Depth() != 0 {
		t.Fatalf("depth went negative or stuck: %d", tr.Depth())
	}
	if got := rec.Count(recovery.ErrUnmatchedClose); got != 4 {
		t.Fatalf("expected 4 unmatched closes, got %d", got)
	}
}

func TestTracker_DanglingGroups(t *testing.T) {
	rec := recovery.NewLenientStrategy(nil)
	tr := NewTracker(rec)
	feed(t, `{\rtf1{\info{\author x}`, tr)
	if n := tr.Finish(20); n != 2 {
		t.Fatalf("expected 2 dangling groups, got %d", n)
	}
	if rec.Count(recovery.ErrDanglingGroups) != 1 {
		t.Fatalf("expected dangling anomaly, got %v", rec.Errors)
	}
}
