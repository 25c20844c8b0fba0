package catalog

import (
	"strings"

	"github.com/nauhq/nau-assist-go/internal/stringutil"
)

// Match returns the first entry whose trigger phrases match the normalized
// query, or nil when neither pass produces a hit.
//
// Pass one walks entries in declaration order and, within each entry,
// trigger phrases in declaration order. A trigger matches when the query
// equals it or contains it as a substring. First match wins, which makes
// declaration order part of the contract: longer, more specific entries
// must be declared before shorter generic ones.
//
// Pass two applies the keyword-priority rule: if any priority keyword
// appears in the query, the priority entry is returned even though no
// trigger phrase matched. Account-lockout queries phrased in ways the
// trigger list never anticipated still reach the password-reset answer.
func (c *Catalog) Match(normalizedQuery string) *Entry {
	if normalizedQuery == "" {
		return nil
	}

	for i := range c.entries {
		e := &c.entries[i]
		for _, trigger := range e.Triggers {
			if normalizedQuery == trigger || strings.Contains(normalizedQuery, trigger) {
				return e
			}
		}
	}

	if c.priorityKey != "" && stringutil.ContainsAny(normalizedQuery, c.priorityKeywords) {
		return c.byKey[c.priorityKey]
	}

	return nil
}

// MatchRaw normalizes the raw utterance and matches it.
func (c *Catalog) MatchRaw(raw string) *Entry {
	return c.Match(stringutil.Normalize(raw))
}
