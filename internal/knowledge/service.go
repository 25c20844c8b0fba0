// Package knowledge provides the fallback answer service used when no
// catalog entry matches a query. The production implementation calls
// OpenAI's web-search capable chat completions API and degrades through a
// chain of cheaper attempts before giving up.
package knowledge

import (
	"context"
)

// Result is a generated answer with its citation sources.
type Result struct {
	Answer  string
	Sources []string
}

// Service is the knowledge fallback contract: free-text query in, answer
// plus sources out, or an error the caller must treat as recoverable.
type Service interface {
	// Answer generates an answer for a query that matched no catalog entry.
	Answer(ctx context.Context, query string) (*Result, error)

	// IsEnabled returns true if the service is configured with credentials.
	IsEnabled() bool

	// Close releases resources held by the service.
	Close() error
}

// Snippet is one hardcoded knowledge-base item used to prime the
// last-resort plain-model attempt when web search is unavailable.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Title   string `json:"title"`
}

// baseSnippets is the minimal campus knowledge base.
var baseSnippets = []Snippet{
	{
		Content: "North American University (NAU) is a private, non-profit university located in Stafford, Texas. NAU offers undergraduate and graduate programs in Business Administration, Computer Science, and Education.",
		Source:  "https://www.na.edu/about/",
		Title:   "About NAU",
	},
	{
		Content: "Tuition for international undergraduate students at North American University is as follows: 1 to 11 credits: $1,125 per credit; 12 to 16 credits per academic semester: $13,500; Each additional credit over 16 credits: $1,125 per credit; Summer tuition (per class): $873.",
		Source:  "https://www.na.edu/admissions/tuition-and-fees/",
		Title:   "Tuition and Fees",
	},
	{
		Content: "Housing options at NAU include: Housing On Campus 2 Bed-Room only for men: $2,500.00 per semester, Housing On Campus 3 Bed-Room only for men: $2,100.00 per semester, Housing On Campus 4 Bed-Room only for men: $1,900.00 per semester, Housing on Hotel 2 Bed-Room: $3,600.00 per semester, Housing on Hotel 3 Bedroom: $3,000.00 per semester, Housing on Apartment 2 Bedroom: $3,200.00 per semester, Summer Housing: $1,250.00.",
		Source:  "https://www.na.edu/campus-life/housing/",
		Title:   "Housing Options",
	},
	{
		Content: "Meal service options at NAU include: 19-Meal per Week: $2,500.00 per semester, 14-Meal per Week: $1,900.00 per semester, 10-Meal per Week: $1,300.00 per semester.",
		Source:  "https://www.na.edu/campus-life/dining-services/",
		Title:   "Dining Services",
	},
	{
		Content: "North American University offers scholarships and financial aid to qualified students. These include merit-based scholarships, need-based grants, and work-study opportunities. International students may be eligible for certain scholarships as well.",
		Source:  "https://www.na.edu/admissions/financial-aid/",
		Title:   "Financial Aid",
	},
	{
		Content: "To apply to North American University, students need to submit an application form, official transcripts, and proof of English proficiency (for international students). Application deadlines vary by semester.",
		Source:  "https://www.na.edu/admissions/",
		Title:   "Admissions",
	},
}
