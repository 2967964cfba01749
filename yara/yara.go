// Package yara synthesizes and renders the loose and strict detection rules.
package yara

import (
	"fmt"
	"strings"

	"github.com/wudi/rtfsig/findings"
	"github.com/wudi/rtfsig/version"
)

// Condition is shared by every generated rule: the document must start with
// the RTF magic "{\rt" and at least one string must match.
const Condition = "uint32be(0) == 0x7b5c7274 and any of them"

const (
	LooseName         = "loose_rule"
	StrictName        = "strict_rule"
	LooseDescription  = "RTF file matching known unique identifiers (higher chance of FP, adjust 'any of them' if required)"
	StrictDescription = "RTF file matching known unique identifiers (lower chance of FP)"
)

// Rule is either a LooseRule or a StrictRule.
type Rule interface {
	Name() string
	Description() string
	// Literals returns the unescaped pattern strings in rule order.
	Literals() []string
}

// LooseRule matches on any one of its patterns.
type LooseRule struct {
	Patterns []string
}

func (LooseRule) Name() string         { return LooseName }
func (LooseRule) Description() string  { return LooseDescription }
func (r LooseRule) Literals() []string { return r.Patterns }

// StrictRule matches a single compound pattern built from the RSID table.
type StrictRule struct {
	Compound string
}

func (StrictRule) Name() string         { return StrictName }
func (StrictRule) Description() string  { return StrictDescription }
func (r StrictRule) Literals() []string { return []string{r.Compound} }

// Synthesize builds the rules for a filtered document. It returns nothing when
// there are no candidate strings. The strict rule is skipped when no value was
// seen as a bare \rsidN, since change markers alone never form the compound.
func Synthesize(res *findings.Result) []Rule {
	if len(res.Strings) == 0 {
		return nil
	}
	rules := []Rule{LooseRule{Patterns: append([]string(nil), res.Strings...)}}
	if len(res.StrictRsids) > 0 {
		rules = append(rules, StrictRule{Compound: findings.Compound(res.StrictRsids)})
	}
	return rules
}

// Escape renders s as the body of a double quoted text string: backslashes
// and quotes are escaped and bytes outside printable ASCII become \xHH.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Render writes one rule block.
func Render(r Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s {\n", r.Name())
	b.WriteString("  meta:\n")
	fmt.Fprintf(&b, "    description = \"%s\"\n", Escape(r.Description()))
	fmt.Fprintf(&b, "    generated_by = \"%s version %s\"\n", version.Tool, version.Version)
	b.WriteString("\n  strings:\n")
	for _, lit := range r.Literals() {
		fmt.Fprintf(&b, "    $ = \"%s\" ascii\n", Escape(lit))
	}
	b.WriteString("\n  condition:\n")
	fmt.Fprintf(&b, "    %s\n", Condition)
	b.WriteString("}\n")
	return b.String()
}

// RenderAll joins the rendered rules with a blank line between blocks.
func RenderAll(rules []Rule) string {
	blocks := make([]string, 0, len(rules))
	for _, r := range rules {
		blocks = append(blocks, Render(r))
	}
	return strings.Join(blocks, "\n")
}
