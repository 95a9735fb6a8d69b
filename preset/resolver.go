package preset

import "strings"

// Resolve returns the ruleset governing an object name: the first ruleset
// in stored order whose non-empty prefix starts the name, compared
// case-insensitively. The empty prefix is consulted only after every named
// prefix misses. Order decides — an earlier short prefix beats a later,
// longer one. Returns nil when nothing matches.
func Resolve(name string, sets []*RuleSet) *RuleSet {
	lower := strings.ToLower(name)
	var catchAll *RuleSet
	for _, rs := range sets {
		if rs.Prefix == "" {
			if catchAll == nil {
				catchAll = rs
			}
			continue
		}
		if strings.HasPrefix(lower, strings.ToLower(rs.Prefix)) {
			return rs
		}
	}
	return catchAll
}
