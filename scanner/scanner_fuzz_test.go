package scanner

import (
	"testing"

	"github.com/wudi/rtfsig/recovery"
)

func FuzzScanner(f *testing.F) {
	f.Add([]byte(`{\rtf1\ansi\ansicpg1252 Hello}`))
	f.Add([]byte(`{\pict\picw10\pich10\bin4 {}\\}`))
	f.Add([]byte(`{\*\rsidtbl \rsid1234\rsid5678}`))
	f.Add([]byte(`\'e9\'z\u-10\bin99`))
	f.Add([]byte(`}}}{{{\`))

	f.Fuzz(func(t *testing.T, data []byte) {
		s := New(data, Config{Recovery: recovery.NewLenientStrategy(nil)})
		var prev int64
		for {
			tok, err := s.Next()
			if err != nil {
				break
			}
			if tok.Pos != prev || tok.End <= tok.Pos {
				t.Fatalf("token span [%d,%d) does not follow %d", tok.Pos, tok.End, prev)
			}
			prev = tok.End
		}
		if prev != int64(len(data)) {
			t.Fatalf("scanner stopped at %d of %d", prev, len(data))
		}
	})
}
