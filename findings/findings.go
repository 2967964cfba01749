// Package findings turns raw extraction results into deduplicated candidate
// strings grouped by category, plus document level observations.
package findings

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/crypto/blake2b"

	"github.com/wudi/rtfsig/extractor"
)

type Category string

const (
	CategoryRsid    Category = "rsid"
	CategoryImage   Category = "image"
	CategoryBlip    Category = "blip"
	CategoryDocInfo Category = "docinfo"
	CategoryMagic   Category = "magic-marker"
)

// rtfMagic is the header every RTF document starts with; generated rules test
// it as uint32be(0) == 0x7b5c7274.
var rtfMagic = []byte(`{\rt`)

// Finding is one category and the candidate strings it contributes. The
// magic-marker finding carries a note and never any candidates.
type Finding struct {
	Category   Category
	Candidates []string
	Note       string
}

// Magic describes the document header check.
type Magic struct {
	Anomalous bool
	Note      string
}

// PayloadSummary aggregates the embedded picture and object payloads.
type PayloadSummary struct {
	Count       int
	MaxEntropy  float64
	MeanEntropy float64
}

type Result struct {
	Magic        Magic
	Findings     []Finding
	Observations []Observation
	HasRsidTable bool
	ImageCount   int // pictures with a full set of dimensions
	DocInfoCount int
	ObjectCount  int
	Payloads     PayloadSummary

	// Strings is every distinct candidate, ordered by category then discovery.
	Strings []string
	// StrictRsids are the values seen as bare \rsidN, ascending.
	StrictRsids []int64
	// RsidFingerprint is the BLAKE2b-256 digest of the strict compound string.
	RsidFingerprint string
}

// Filter builds the candidate set for one document.
func Filter(data []byte, res *extractor.Result) *Result {
	out := &Result{
		Magic:        checkMagic(data),
		HasRsidTable: res.HasRsidTable,
		DocInfoCount: len(res.DocInfo),
		ObjectCount:  len(res.Objects),
	}

	seen := make(map[string]bool)
	add := func(cat Category, candidates []string) {
		var kept []string
		for _, c := range candidates {
			if seen[c] {
				continue
			}
			seen[c] = true
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			return
		}
		out.Findings = append(out.Findings, Finding{Category: cat, Candidates: kept})
		out.Strings = append(out.Strings, kept...)
	}

	add(CategoryRsid, rsidCandidates(res.Rsids))
	images, blips := pictureCandidates(res.Pictures)
	for _, p := range res.Pictures {
		if p.Dimensions != nil {
			out.ImageCount++
		}
	}
	add(CategoryImage, images)
	add(CategoryBlip, blips)
	docinfo := make([]string, 0, len(res.DocInfo))
	for _, tag := range res.DocInfo {
		docinfo = append(docinfo, tag.Raw)
	}
	add(CategoryDocInfo, docinfo)

	if out.Magic.Anomalous {
		out.Findings = append(out.Findings, Finding{Category: CategoryMagic, Note: out.Magic.Note})
	}

	out.StrictRsids = StrictValues(res.Rsids)
	if len(out.StrictRsids) > 0 {
		sum := blake2b.Sum256([]byte(Compound(out.StrictRsids)))
		out.RsidFingerprint = hex.EncodeToString(sum[:])
	}
	out.Payloads = summarizePayloads(res)
	out.Observations = observe(out, res)
	return out
}

// Category returns the finding for cat, if any.
func (r *Result) Category(cat Category) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Category == cat {
			return f, true
		}
	}
	return Finding{}, false
}

func checkMagic(data []byte) Magic {
	if !bytes.HasPrefix(data, rtfMagic) {
		return Magic{Anomalous: true, Note: `document does not start with the RTF header {\rt`}
	}
	if len(data) < 6 || string(data[4:6]) != "f1" {
		return Magic{Anomalous: true, Note: Observations[OBS002]}
	}
	return Magic{}
}

// rsidCandidates yields one string per record and prefix: the bare prefix
// keeps its backslash (\rsid123), change markers do not (insrsid123).
func rsidCandidates(records []*extractor.RsidRecord) []string {
	var out []string
	for _, rec := range records {
		for _, prefix := range rec.Prefixes {
			if prefix == "rsid" {
				out = append(out, fmt.Sprintf(`\rsid%d`, rec.Value))
				continue
			}
			out = append(out, fmt.Sprintf("%s%d", prefix, rec.Value))
		}
	}
	return out
}

func pictureCandidates(pictures []extractor.Picture) (images, blips []string) {
	for _, p := range pictures {
		if p.Dimensions != nil {
			images = append(images, p.Dimensions.String())
		}
		if p.BlipTag != nil {
			blips = append(blips, fmt.Sprintf("bliptag%d", *p.BlipTag))
		}
		if isHexString(p.BlipUID) {
			blips = append(blips, p.BlipUID)
		}
	}
	return images, blips
}

// StrictValues returns the values observed under the bare rsid prefix, ascending.
func StrictValues(records []*extractor.RsidRecord) []int64 {
	var out []int64
	for _, rec := range records {
		if rec.HasPrefix("rsid") {
			out = append(out, rec.Value)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compound concatenates \rsidN for each value with no separator.
func Compound(values []int64) string {
	var buf bytes.Buffer
	for _, v := range values {
		fmt.Fprintf(&buf, `\rsid%d`, v)
	}
	return buf.String()
}

func summarizePayloads(res *extractor.Result) PayloadSummary {
	var entropies stats.Float64Data
	for _, p := range res.Pictures {
		if p.PayloadSize > 0 {
			entropies = append(entropies, p.Entropy)
		}
	}
	for _, o := range res.Objects {
		if o.PayloadSize > 0 {
			entropies = append(entropies, o.Entropy)
		}
	}
	summary := PayloadSummary{Count: len(entropies)}
	if len(entropies) == 0 {
		return summary
	}
	summary.MaxEntropy, _ = stats.Max(entropies)
	summary.MeanEntropy, _ = stats.Mean(entropies)
	return summary
}

func isHexString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
