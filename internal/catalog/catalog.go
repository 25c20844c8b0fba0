// Package catalog implements the predefined question/answer catalog: the
// static entries, the trigger phrase matcher, and the scripted follow-up
// resolver. Matching is deterministic and order-sensitive; see Match.
package catalog

import (
	"fmt"
)

// DefaultSource is the citation used when an entry or fallback answer
// carries no explicit sources.
const DefaultSource = "https://www.na.edu"

// FollowUpKind discriminates the three scripted branching styles.
type FollowUpKind int

const (
	// FollowUpYesNo classifies the reply as affirmative or negative.
	FollowUpYesNo FollowUpKind = iota
	// FollowUpCategorical classifies the reply as undergraduate or graduate.
	FollowUpCategorical
	// FollowUpOpenProgram matches the reply against known program names.
	FollowUpOpenProgram
)

// String returns a label for logging and metrics.
func (k FollowUpKind) String() string {
	switch k {
	case FollowUpYesNo:
		return "yes_no"
	case FollowUpCategorical:
		return "categorical"
	case FollowUpOpenProgram:
		return "open_program"
	default:
		return "unknown"
	}
}

// Branch is one labeled response of a follow-up. Branches are kept as an
// ordered slice, not a map: for open-program lookups the declared check
// order decides which program wins when a reply mentions several.
type Branch struct {
	Label    string
	Response string
}

// FollowUpSpec is a single scripted branch question attached to an entry.
// Specs are defined at process start and never mutated.
type FollowUpSpec struct {
	Prompt   string
	Kind     FollowUpKind
	Branches []Branch
	Default  string // returned when the reply cannot be classified
}

// Branch returns the response for a branch label.
func (s *FollowUpSpec) Branch(label string) (string, bool) {
	for _, b := range s.Branches {
		if b.Label == label {
			return b.Response, true
		}
	}
	return "", false
}

// Entry is one canned Q&A unit.
type Entry struct {
	Key      string   // canonical identifier, unique within the catalog
	Triggers []string // normalized phrases that select this entry
	Answer   string
	Sources  []string
	FollowUp *FollowUpSpec // optional
}

// Catalog holds the declaration-ordered entries plus the secondary
// keyword-priority rule applied after the main matching pass.
type Catalog struct {
	entries []Entry
	byKey   map[string]*Entry

	// priorityKeywords select priorityKey even when no trigger matched.
	priorityKeywords []string
	priorityKey      string
}

// New builds the default catalog from the static entry data.
func New() (*Catalog, error) {
	return build(defaultEntries, passwordKeywords, passwordEntryKey)
}

func build(entries []Entry, priorityKeywords []string, priorityKey string) (*Catalog, error) {
	c := &Catalog{
		entries:          entries,
		byKey:            make(map[string]*Entry, len(entries)),
		priorityKeywords: priorityKeywords,
		priorityKey:      priorityKey,
	}
	for i := range c.entries {
		e := &c.entries[i]
		if e.Key == "" {
			return nil, fmt.Errorf("catalog entry %d has no key", i)
		}
		if len(e.Triggers) == 0 {
			return nil, fmt.Errorf("catalog entry %q has no trigger phrases", e.Key)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q", e.Key)
		}
		c.byKey[e.Key] = e
	}
	if priorityKey != "" {
		if _, ok := c.byKey[priorityKey]; !ok {
			return nil, fmt.Errorf("priority key %q has no catalog entry", priorityKey)
		}
	}
	return c, nil
}

// Entries returns the entries in declaration order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Lookup returns the entry for a canonical key, or nil.
func (c *Catalog) Lookup(key string) *Entry {
	return c.byKey[key]
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
