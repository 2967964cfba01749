// Package analyser runs the whole pipeline over one RTF document:
// tokenize, extract, filter, then synthesize rules.
package analyser

import (
	"github.com/wudi/rtfsig/extractor"
	"github.com/wudi/rtfsig/findings"
	"github.com/wudi/rtfsig/observability"
	"github.com/wudi/rtfsig/recovery"
	"github.com/wudi/rtfsig/yara"
)

type Config struct {
	// ExcludeRisky leaves the document information group out of the findings.
	ExcludeRisky bool
	Logger       observability.Logger
	// Recovery receives structural anomalies. Defaults to a LenientStrategy
	// whose records are returned in Result.Anomalies.
	Recovery recovery.Strategy
}

type Result struct {
	Extraction *extractor.Result
	Findings   *findings.Result
	Rules      []yara.Rule
	// RuleText is the rendered rule file, empty when there were no findings.
	RuleText  string
	Anomalies []error
}

// Analyser holds configuration only; every call to Analyse owns its own state.
type Analyser struct {
	cfg Config
}

func New(cfg Config) *Analyser {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &Analyser{cfg: cfg}
}

// Analyse processes a complete document held in memory. Structural problems
// degrade the findings but never fail the call.
func (a *Analyser) Analyse(data []byte) *Result {
	log := a.cfg.Logger
	rec := a.cfg.Recovery
	lenient, _ := rec.(*recovery.LenientStrategy)
	if rec == nil {
		lenient = recovery.NewLenientStrategy(log)
		rec = lenient
	}

	ext := extractor.Run(data, extractor.Config{
		ExcludeRisky: a.cfg.ExcludeRisky,
		Recovery:     rec,
		Logger:       log,
	})
	found := findings.Filter(data, ext)
	rules := yara.Synthesize(found)

	res := &Result{
		Extraction: ext,
		Findings:   found,
		Rules:      rules,
		RuleText:   yara.RenderAll(rules),
	}
	if lenient != nil {
		res.Anomalies = append([]error(nil), lenient.Errors...)
	}
	log.Debug("analysis complete",
		observability.Int("bytes", len(data)),
		observability.Int("strings", len(found.Strings)),
		observability.Int("rules", len(rules)),
		observability.Int("anomalies", len(res.Anomalies)),
	)
	return res
}
