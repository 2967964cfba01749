package extractor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/image/bmp"

	"github.com/wudi/rtfsig/group"
	"github.com/wudi/rtfsig/scanner"
)

// ImageDimensionSet is the declared size of one picture: \picw, \pich,
// \picwgoal and \pichgoal.
type ImageDimensionSet struct {
	Width      int64
	Height     int64
	WidthGoal  int64
	HeightGoal int64
}

// String renders the set the way RTF writers emit it.
func (d ImageDimensionSet) String() string {
	return fmt.Sprintf(`\picw%d\pich%d\picwgoal%d\pichgoal%d`, d.Width, d.Height, d.WidthGoal, d.HeightGoal)
}

// Picture is one \pict group.
type Picture struct {
	Pos         int64
	Dimensions  *ImageDimensionSet // nil unless all four sizes are present and non-zero
	Format      string             // png, jpeg, dib, ddb, emf, wmf, pict, os2 or empty
	BlipTag     *int64
	BlipUID     string
	PayloadSize int
	PixelWidth  int // from the decoded payload, 0 if it could not be probed
	PixelHeight int
	Entropy     float64 // bits per byte
}

var blipFormats = map[string]string{
	"pngblip":    "png",
	"jpegblip":   "jpeg",
	"dibitmap":   "dib",
	"wbitmap":    "ddb",
	"emfblip":    "emf",
	"wmetafile":  "wmf",
	"macpict":    "pict",
	"pmmetafile": "os2",
}

type pictureState struct {
	sizes   map[string]int64
	format  string
	blipTag *int64
	blipUID strings.Builder
	payload hexSink
}

type imageExtractor struct {
	open     map[int64]*pictureState
	pictures []Picture
}

func newImageExtractor() *imageExtractor {
	return &imageExtractor{open: make(map[int64]*pictureState)}
}

func (e *imageExtractor) state(frame group.Frame) *pictureState {
	st, ok := e.open[frame.Pos]
	if !ok {
		st = &pictureState{sizes: make(map[string]int64, 4)}
		e.open[frame.Pos] = st
	}
	return st
}

func (e *imageExtractor) Token(tok scanner.Token, groups *group.Tracker) {
	pict, ok := groups.Nearest(group.Picture)
	if !ok {
		return
	}
	st := e.state(pict)
	inner, _ := groups.Innermost()
	switch tok.Type {
	case scanner.TokenControlWord:
		switch tok.Word {
		case "picw", "pich", "picwgoal", "pichgoal":
			if tok.HasParam {
				st.sizes[tok.Word] = tok.Param
			}
		case "bliptag":
			if tok.HasParam {
				v := tok.Param
				st.blipTag = &v
			}
		default:
			if f, ok := blipFormats[tok.Word]; ok {
				st.format = f
			}
		}
	case scanner.TokenText:
		switch {
		case inner.Destination == group.BlipUID:
			st.blipUID.Write(tok.Bytes)
		case inner.Pos == pict.Pos:
			st.payload.write(tok.Bytes)
		}
	case scanner.TokenBinary:
		if inner.Pos == pict.Pos {
			st.payload.raw(tok.Bytes)
		}
	}
}

func (e *imageExtractor) Close(frame group.Frame, _ scanner.Token, _ *group.Tracker) {
	if frame.Destination != group.Picture {
		return
	}
	st, ok := e.open[frame.Pos]
	delete(e.open, frame.Pos)
	if !ok {
		st = &pictureState{sizes: map[string]int64{}}
	}
	pic := Picture{
		Pos:         frame.Pos,
		Dimensions:  dimensions(st.sizes),
		Format:      st.format,
		BlipTag:     st.blipTag,
		BlipUID:     strings.TrimSpace(st.blipUID.String()),
		PayloadSize: len(st.payload.out),
		Entropy:     entropy(st.payload.out),
	}
	pic.PixelWidth, pic.PixelHeight = probe(st.format, st.payload.out)
	e.pictures = append(e.pictures, pic)
}

func (e *imageExtractor) collect(res *Result) { res.Pictures = e.pictures }

// dimensions returns a set only when all four sizes were declared and none is
// zero; zero sizes are what writers emit by default and carry no signal.
func dimensions(sizes map[string]int64) *ImageDimensionSet {
	d := ImageDimensionSet{
		Width:      sizes["picw"],
		Height:     sizes["pich"],
		WidthGoal:  sizes["picwgoal"],
		HeightGoal: sizes["pichgoal"],
	}
	if len(sizes) != 4 || d.Width <= 0 || d.Height <= 0 || d.WidthGoal <= 0 || d.HeightGoal <= 0 {
		return nil
	}
	return &d
}

// probe reads the pixel size from a decoded picture payload where the format allows it.
func probe(format string, payload []byte) (int, int) {
	if len(payload) == 0 {
		return 0, 0
	}
	var (
		cfg image.Config
		err error
	)
	switch format {
	case "png", "jpeg":
		cfg, _, err = image.DecodeConfig(bytes.NewReader(payload))
	case "dib":
		cfg, err = bmp.DecodeConfig(bytes.NewReader(withBitmapFileHeader(payload)))
	default:
		return 0, 0
	}
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// withBitmapFileHeader prefixes a packed DIB with the 14 byte BITMAPFILEHEADER
// a .bmp file carries, so it can be read by a BMP decoder.
func withBitmapFileHeader(dib []byte) []byte {
	const fileHeaderLen = 14
	if len(dib) < 40 {
		return dib
	}
	infoLen := binary.LittleEndian.Uint32(dib[0:4])
	bpp := binary.LittleEndian.Uint16(dib[14:16])
	colors := binary.LittleEndian.Uint32(dib[32:36])
	if colors == 0 && bpp <= 8 {
		colors = 1 << bpp
	}
	out := make([]byte, fileHeaderLen, fileHeaderLen+len(dib))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(fileHeaderLen+len(dib)))
	binary.LittleEndian.PutUint32(out[10:14], fileHeaderLen+infoLen+colors*4)
	return append(out, dib...)
}

// entropy returns the Shannon entropy of p in bits per byte.
func entropy(p []byte) float64 {
	if len(p) == 0 {
		return 0
	}
	var counts [256]float64
	for _, c := range p {
		counts[c]++
	}
	nats, err := stats.Entropy(stats.Float64Data(counts[:]))
	if err != nil {
		return 0
	}
	return nats / math.Ln2
}
