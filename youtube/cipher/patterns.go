package cipher

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"
)

// ErrNoPatternMatched is returned when no pattern of a list matches.
var ErrNoPatternMatched = errors.New("no pattern matched")

// Match holds the named groups captured by the pattern that matched.
type Match struct {
	Pattern string
	groups  map[string]string
}

// Group returns the named group value, or "" when it did not participate.
func (m Match) Group(name string) string { return m.groups[name] }

type matcher interface {
	match(s string) (map[string]string, bool)
}

type stdMatcher struct{ re *regexp.Regexp }

func (m stdMatcher) match(s string) (map[string]string, bool) {
	sub := m.re.FindStringSubmatchIndex(s)
	if sub == nil {
		return nil, false
	}
	groups := make(map[string]string)
	for i, name := range m.re.SubexpNames() {
		if name == "" || sub[2*i] < 0 {
			continue
		}
		groups[name] = s[sub[2*i]:sub[2*i+1]]
	}
	return groups, true
}

type re2Matcher struct{ re *regexp2.Regexp }

func (m re2Matcher) match(s string) (map[string]string, bool) {
	found, err := m.re.FindStringMatch(s)
	if err != nil || found == nil {
		return nil, false
	}
	groups := make(map[string]string)
	for _, name := range m.re.GetGroupNames() {
		g := found.GroupByName(name)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		groups[name] = g.String()
	}
	return groups, true
}

// Pattern is one labelled attempt in an ordered list.
type Pattern struct {
	Label string
	m     matcher
}

// Std builds a pattern on the standard library engine.
func Std(label, expr string) Pattern {
	return Pattern{Label: label, m: stdMatcher{re: regexp.MustCompile(expr)}}
}

// Re2 builds a pattern on regexp2, for backreferences, lookarounds and
// atomic groups.
func Re2(label, expr string, opts regexp2.RegexOptions) Pattern {
	return Pattern{Label: label, m: re2Matcher{re: regexp2.MustCompile(expr, opts)}}
}

// Patterns is an ordered list; the first matching pattern wins.
type Patterns []Pattern

// First returns the match of the first pattern that matches s.
func (ps Patterns) First(s string) (Match, error) {
	for _, p := range ps {
		if groups, ok := p.m.match(s); ok {
			return Match{Pattern: p.Label, groups: groups}, nil
		}
	}
	return Match{}, fmt.Errorf("%w (%d patterns tried)", ErrNoPatternMatched, len(ps))
}
