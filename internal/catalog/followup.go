package catalog

import (
	"strings"

	"github.com/nauhq/nau-assist-go/internal/stringutil"
)

// Reply classification word sets. Matching is substring containment on the
// lowercased reply, which makes "not" match inside "cannot" and "notify".
// That misfire is long-standing observed behavior and is kept as is; the
// regression tests in followup_test.go document it.
var (
	affirmativeWords = []string{"yes", "yeah", "yep", "sure", "definitely", "absolutely"}
	negativeWords    = []string{"no", "nope", "not", "don't", "dont"}

	undergraduateWords = []string{"undergraduate", "bachelor", "bachelors", "bs", "ba"}
	graduateWords      = []string{"graduate", "master", "masters", "mba", "ms", "phd"}
)

// Resolve classifies a raw free-text reply against a follow-up spec and
// returns the branch response text. It never fails: unclassifiable replies
// degrade to the spec's default response.
func Resolve(spec *FollowUpSpec, rawReply string) string {
	if spec == nil {
		return ""
	}

	reply := strings.ToLower(strings.TrimSpace(rawReply))

	switch spec.Kind {
	case FollowUpYesNo:
		return resolveYesNo(spec, reply)
	case FollowUpCategorical:
		return resolveCategorical(spec, reply)
	case FollowUpOpenProgram:
		return resolveOpenProgram(spec, reply)
	default:
		return spec.Default
	}
}

// resolveYesNo takes the affirmative branch when only affirmative words
// appear and the negative branch when only negative words appear. A reply
// matching both sets is ambiguous and degrades to the default, as does one
// matching neither.
func resolveYesNo(spec *FollowUpSpec, reply string) string {
	affirmative := stringutil.ContainsAny(reply, affirmativeWords)
	negative := stringutil.ContainsAny(reply, negativeWords)

	switch {
	case affirmative && !negative:
		if resp, ok := spec.Branch("yes"); ok {
			return resp
		}
	case negative && !affirmative:
		if resp, ok := spec.Branch("no"); ok {
			return resp
		}
	}
	return spec.Default
}

// resolveCategorical checks the undergraduate word set before the graduate
// one. The order matters: "undergraduate" would otherwise be swallowed by
// the "graduate" substring.
func resolveCategorical(spec *FollowUpSpec, reply string) string {
	if stringutil.ContainsAny(reply, undergraduateWords) {
		if resp, ok := spec.Branch("undergraduate"); ok {
			return resp
		}
	} else if stringutil.ContainsAny(reply, graduateWords) {
		if resp, ok := spec.Branch("graduate"); ok {
			return resp
		}
	}
	return spec.Default
}

// resolveOpenProgram returns the first declared branch whose label appears
// in the reply.
func resolveOpenProgram(spec *FollowUpSpec, reply string) string {
	for _, b := range spec.Branches {
		if strings.Contains(reply, b.Label) {
			return b.Response
		}
	}
	return spec.Default
}
