// Package report presents analysis results on the console and as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/rtfsig/analyser"
	"github.com/wudi/rtfsig/observability"
)

// Log writes one line per finding category to log.
func Log(log observability.Logger, res *analyser.Result) {
	f := res.Findings
	log.Info("magic marker",
		observability.Bool("anomalous", f.Magic.Anomalous),
		observability.String("note", f.Magic.Note),
	)
	log.Info("rsid table", observability.Bool("present", f.HasRsidTable))
	log.Info("embedded images with set dimensions", observability.Int("count", f.ImageCount))
	log.Info("document information tags", observability.Int("count", f.DocInfoCount))
	for _, o := range f.Observations {
		log.Info(o.Text, observability.String("code", o.Code))
	}
	if f.Payloads.Count > 0 {
		log.Debug("embedded payloads",
			observability.Int("count", f.Payloads.Count),
			observability.String("max_entropy", fmt.Sprintf("%.2f", f.Payloads.MaxEntropy)),
			observability.String("mean_entropy", fmt.Sprintf("%.2f", f.Payloads.MeanEntropy)),
		)
	}
	if f.RsidFingerprint != "" {
		log.Debug("rsid fingerprint", observability.String("blake2b", f.RsidFingerprint))
	}
	if len(res.Anomalies) > 0 {
		log.Debug("parsed in best-effort mode", observability.Int("anomalies", len(res.Anomalies)))
	}
	if len(f.Strings) == 0 {
		log.Info("no unique strings found, check the document for unique parts which have been missed")
		return
	}
	log.Info("interesting strings (higher chance of FP)", observability.String("strings", strings.Join(f.Strings, ", ")))
}

// Markdown renders a summary of res.
func Markdown(name string, res *analyser.Result) string {
	f := res.Findings
	var b strings.Builder
	fmt.Fprintf(&b, "# rtfsig report: %s\n\n", name)
	b.WriteString("| Check | Result |\n|---|---|\n")
	magic := "ok"
	if f.Magic.Anomalous {
		magic = f.Magic.Note
	}
	fmt.Fprintf(&b, "| Magic marker | %s |\n", cell(magic))
	fmt.Fprintf(&b, "| RSID table | %t |\n", f.HasRsidTable)
	fmt.Fprintf(&b, "| Images with set dimensions | %d |\n", f.ImageCount)
	fmt.Fprintf(&b, "| Document information tags | %d |\n", f.DocInfoCount)
	fmt.Fprintf(&b, "| Embedded objects | %d |\n", f.ObjectCount)
	if f.RsidFingerprint != "" {
		fmt.Fprintf(&b, "| RSID fingerprint | %s |\n", codeSpan(f.RsidFingerprint))
	}

	if len(f.Observations) > 0 {
		b.WriteString("\n## Observations\n\n")
		for _, o := range f.Observations {
			fmt.Fprintf(&b, "- **%s** %s\n", o.Code, o.Text)
		}
	}

	b.WriteString("\n## Strings\n\n")
	if len(f.Strings) == 0 {
		b.WriteString("No unique strings found.\n")
		return b.String()
	}
	for _, finding := range f.Findings {
		for _, c := range finding.Candidates {
			fmt.Fprintf(&b, "- %s: %s\n", finding.Category, codeSpan(c))
		}
	}
	b.WriteString("\n## Rules\n\n```yara\n")
	b.WriteString(res.RuleText)
	b.WriteString("```\n")
	return b.String()
}

// HTML converts the Markdown summary to an HTML fragment.
func HTML(name string, res *analyser.Result) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(name, res)), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// codeSpan wraps s in a backtick run longer than any run inside it. A padding
// space is added for longer fences, which Markdown strips again.
func codeSpan(s string) string {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != '`' {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	if longest == 0 {
		return "`" + s + "`"
	}
	fence := strings.Repeat("`", longest+1)
	return fence + " " + s + " " + fence
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "|", `\|`)
}
