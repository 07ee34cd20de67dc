package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[A-Z][A-Z0-9]*-[0-9]{3}$`)

// ValidID reports whether id follows the <DOMAIN>-<CATEGORY>-<NUM> convention.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Matcher is a case-insensitive text pattern.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

func NewMatcher(pattern string) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return Matcher{}, errors.New("empty pattern")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("compile %q: %w", pattern, err)
	}
	return Matcher{pattern: pattern, re: re}, nil
}

func (m Matcher) Pattern() string { return m.pattern }

func (m Matcher) MatchString(text string) bool {
	return m.re != nil && m.re.MatchString(text)
}

// Definition is the authored form of a rule. Indicator and mitigation
// patterns are regular expressions matched case-insensitively.
type Definition struct {
	ID          string
	Severity    Severity
	Title       string
	Description string
	// Message is the text attached to every finding the rule produces.
	Message     string
	Indicators  []string
	Mitigations []string
	// Anchor is a representative substring; its first occurrence gives the
	// finding's line. Empty means the finding is attributed to line 1.
	Anchor string
}

// Rule is an immutable, compiled catalog entry.
type Rule struct {
	id          string
	severity    Severity
	title       string
	description string
	message     string
	anchor      string
	anchorRe    *regexp.Regexp
	indicators  []Matcher
	mitigations []Matcher
}

func NewRule(d Definition) (Rule, error) {
	if !ValidID(d.ID) {
		return Rule{}, fmt.Errorf("invalid rule id %q: expected <DOMAIN>-<CATEGORY>-<NUM>", d.ID)
	}
	if !d.Severity.Valid() {
		return Rule{}, fmt.Errorf("rule %s: invalid severity %q", d.ID, d.Severity)
	}
	if strings.TrimSpace(d.Title) == "" {
		return Rule{}, fmt.Errorf("rule %s: title is required", d.ID)
	}
	if len(d.Indicators) == 0 {
		return Rule{}, fmt.Errorf("rule %s: at least one indicator is required", d.ID)
	}

	r := Rule{
		id:          d.ID,
		severity:    d.Severity,
		title:       d.Title,
		description: d.Description,
		message:     d.Message,
		anchor:      d.Anchor,
	}
	if r.message == "" {
		r.message = d.Title
	}
	if d.Anchor != "" {
		r.anchorRe = regexp.MustCompile("(?i)" + regexp.QuoteMeta(d.Anchor))
	}
	for _, p := range d.Indicators {
		m, err := NewMatcher(p)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: indicator: %w", d.ID, err)
		}
		r.indicators = append(r.indicators, m)
	}
	for _, p := range d.Mitigations {
		m, err := NewMatcher(p)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: mitigation: %w", d.ID, err)
		}
		r.mitigations = append(r.mitigations, m)
	}
	return r, nil
}

func MustRule(d Definition) Rule {
	r, err := NewRule(d)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rule) ID() string          { return r.id }
func (r Rule) Severity() Severity  { return r.severity }
func (r Rule) Title() string       { return r.title }
func (r Rule) Description() string { return r.description }
func (r Rule) Message() string     { return r.message }
func (r Rule) Anchor() string      { return r.anchor }

// AnchorOffset returns the byte offset of the first case-insensitive
// occurrence of the rule's anchor in text, or -1 when the rule has no anchor
// or text does not contain it.
func (r Rule) AnchorOffset(text string) int {
	if r.anchorRe == nil {
		return -1
	}
	loc := r.anchorRe.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// HasIndicator reports whether any indicator pattern occurs in text.
func (r Rule) HasIndicator(text string) bool {
	return matchAny(r.indicators, text)
}

// HasMitigation reports whether any mitigation pattern occurs in text.
func (r Rule) HasMitigation(text string) bool {
	return matchAny(r.mitigations, text)
}

func (r Rule) IndicatorPatterns() []string  { return patterns(r.indicators) }
func (r Rule) MitigationPatterns() []string { return patterns(r.mitigations) }

func matchAny(ms []Matcher, text string) bool {
	for _, m := range ms {
		if m.MatchString(text) {
			return true
		}
	}
	return false
}

func patterns(ms []Matcher) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Pattern())
	}
	return out
}
