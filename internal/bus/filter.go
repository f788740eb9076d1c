package bus

import (
	"regexp"
	"strings"
)

// Pattern matches sender or recipient identities. A pattern is either an
// exact string, a glob where "*" matches any run of characters, or an
// arbitrary regular expression. The constructor used determines which.
type Pattern struct {
	exact string
	re    *regexp.Regexp
}

// MatchString creates a pattern from a string. If the string contains "*"
// it is treated as a glob; otherwise it requires exact equality.
func MatchString(s string) *Pattern {
	if !strings.Contains(s, "*") {
		return &Pattern{exact: s}
	}
	return &Pattern{re: globToRegexp(s)}
}

// MatchRegexp creates a pattern from a regular expression.
func MatchRegexp(re *regexp.Regexp) *Pattern {
	return &Pattern{re: re}
}

// Matches reports whether the identity satisfies the pattern.
func (p *Pattern) Matches(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return p.exact == s
}

// globToRegexp translates a glob into an anchored regular expression where
// "*" matches any run of characters.
func globToRegexp(glob string) *regexp.Regexp {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}

// Filter narrows which messages of a type a subscriber receives. All declared
// clauses must pass for a message to match; an undeclared clause passes
// unconditionally. A nil *Filter matches every message.
type Filter struct {
	// Source restricts matching to messages from matching senders.
	Source *Pattern

	// Target restricts matching to messages addressed to matching targets.
	// Untargeted messages never match a subscription with a Target clause.
	Target *Pattern

	// Metadata requires every listed key to be present on the message with
	// an equal value. Extra message keys are ignored (subset match).
	Metadata map[string]string

	// Predicate is an arbitrary check over the whole message.
	Predicate func(Message) bool
}

// Matches reports whether the message satisfies every declared clause.
// It is a pure function of the filter and the message.
func (f *Filter) Matches(msg Message) bool {
	if f == nil {
		return true
	}
	if f.Source != nil && !f.Source.Matches(msg.Source) {
		return false
	}
	if f.Target != nil {
		if msg.Target == "" {
			return false
		}
		if !f.Target.Matches(msg.Target) {
			return false
		}
	}
	for key, want := range f.Metadata {
		got, ok := msg.Metadata[key]
		if !ok || got != want {
			return false
		}
	}
	if f.Predicate != nil && !f.Predicate(msg) {
		return false
	}
	return true
}
