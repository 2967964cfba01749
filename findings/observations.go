package findings

import "github.com/wudi/rtfsig/extractor"

// Observation codes reported alongside the candidate strings.
const (
	OBS001 = "OBS001"
	OBS002 = "OBS002"
	OBS003 = "OBS003"
	OBS004 = "OBS004"
	OBS005 = "OBS005"
	OBS006 = "OBS006"
	OBS007 = "OBS007"
	OBS008 = "OBS008"
)

var Observations = map[string]string{
	OBS001: "File contains bytes outside ASCII printable range",
	OBS002: `Non-standard RTF file marker found (expected \rtf1)`,
	OBS003: "Change identifier found which is not in the RSID table (document likely modified)",
	OBS004: "Document contains images with a fixed width/height",
	OBS005: "Document contains information group tags",
	OBS006: "Document contains image identifiers (bliptags)",
	OBS007: "Document contains change tracking (RSID tags)",
	OBS008: "Document contains embedded OLE objects",
}

type Observation struct {
	Code string
	Text string
}

func observe(r *Result, res *extractor.Result) []Observation {
	var codes []string
	if res.NonPrintable {
		codes = append(codes, OBS001)
	}
	if r.Magic.Anomalous && r.Magic.Note == Observations[OBS002] {
		codes = append(codes, OBS002)
	}
	if res.HasRsidTable && hasForeignChange(res.Rsids) {
		codes = append(codes, OBS003)
	}
	if r.ImageCount > 0 {
		codes = append(codes, OBS004)
	}
	if r.DocInfoCount > 0 {
		codes = append(codes, OBS005)
	}
	if _, ok := r.Category(CategoryBlip); ok {
		codes = append(codes, OBS006)
	}
	if res.HasRsidTable {
		codes = append(codes, OBS007)
	}
	if r.ObjectCount > 0 {
		codes = append(codes, OBS008)
	}
	out := make([]Observation, 0, len(codes))
	for _, c := range codes {
		out = append(out, Observation{Code: c, Text: Observations[c]})
	}
	return out
}

// hasForeignChange reports a change marker whose value the RSID table does not list.
func hasForeignChange(records []*extractor.RsidRecord) bool {
	for _, rec := range records {
		if rec.InTable {
			continue
		}
		for _, p := range rec.Prefixes {
			if p != "rsid" {
				return true
			}
		}
	}
	return false
}
