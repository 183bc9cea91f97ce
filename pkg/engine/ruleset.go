package engine

import (
	"sort"

	"github.com/spicery/jsconvert/pkg/common"
)

type entry struct {
	rule Rule
	seq  int
}

// RuleSet indexes rules by node kind for lookup. It is immutable once
// built and may be shared between concurrent conversions.
type RuleSet struct {
	name     string
	rules    []Rule
	byKind   map[string][]entry
	wildcard []entry
}

// NewRuleSet builds a rule set. Registration order is the order of rules
// and breaks ties between rules of equal precedence.
func NewRuleSet(name string, rules []Rule) *RuleSet {
	rs := &RuleSet{
		name:   name,
		rules:  append([]Rule(nil), rules...),
		byKind: make(map[string][]entry),
	}
	for seq, rule := range rs.rules {
		e := entry{rule: rule, seq: seq}
		kinds := rule.Kinds()
		if len(kinds) == 0 {
			rs.wildcard = append(rs.wildcard, e)
			continue
		}
		seen := make(map[string]bool, len(kinds))
		for _, kind := range kinds {
			if !seen[kind] {
				seen[kind] = true
				rs.byKind[kind] = append(rs.byKind[kind], e)
			}
		}
	}
	for _, bucket := range rs.byKind {
		sortEntries(bucket)
	}
	sortEntries(rs.wildcard)
	return rs
}

func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return before(entries[i], entries[j])
	})
}

func before(a, b entry) bool {
	if a.rule.Precedence() != b.rule.Precedence() {
		return a.rule.Precedence() > b.rule.Precedence()
	}
	return a.seq < b.seq
}

func (rs *RuleSet) Name() string { return rs.name }

func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns the rules in registration order.
func (rs *RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

func (rs *RuleSet) Names() []string {
	names := make([]string, 0, len(rs.rules))
	for _, rule := range rs.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Lookup returns the first applicable rule for node, merging the rules
// for its kind with the wildcard rules in precedence order.
func (rs *RuleSet) Lookup(node *common.Node, c *Context) (Rule, bool) {
	kinded := rs.byKind[node.Name]
	wild := rs.wildcard
	for len(kinded) > 0 || len(wild) > 0 {
		var next entry
		if len(wild) == 0 || (len(kinded) > 0 && before(kinded[0], wild[0])) {
			next, kinded = kinded[0], kinded[1:]
		} else {
			next, wild = wild[0], wild[1:]
		}
		if next.rule.Applies(node, c) {
			return next.rule, true
		}
	}
	return nil, false
}
