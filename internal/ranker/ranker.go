// Package ranker scores clubs against a free-text query with a lexical
// overlap heuristic and returns the best matches.
//
// A club's searchable parts are its name, its category (when set), and each
// related and tag entry, all lower-cased. The score is the number of parts
// that contain at least one lower-cased query token as a substring, so the
// token "ai" matches the part "mountaineering" but "robotics" does not match
// the part "robot".
package ranker

import (
	"slices"
	"strings"

	"github.com/sells-group/mission-control/internal/model"
)

// TopN is the number of recommendations returned by Rank.
const TopN = 3

// Result is a club with its relevance score.
type Result struct {
	Club  model.Club `json:"club"`
	Score int        `json:"score"`
}

// Tokens splits query on whitespace and lower-cases each token. Duplicates
// are dropped; the result is sorted.
func Tokens(query string) []string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	slices.Sort(fields)
	return slices.Compact(fields)
}

// Score returns the number of the club's parts matched by the query.
func Score(c model.Club, query string) int {
	return score(c, Tokens(query))
}

func score(c model.Club, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	n := 0
	for _, p := range parts(c) {
		for _, tok := range tokens {
			if strings.Contains(p, tok) {
				n++
				break
			}
		}
	}
	return n
}

// parts returns the distinct lower-cased searchable parts of a club.
func parts(c model.Club) []string {
	out := make([]string, 0, 2+len(c.Related)+len(c.Tags))
	out = append(out, strings.ToLower(c.Name))
	if c.Category != "" {
		out = append(out, strings.ToLower(c.Category))
	}
	for _, r := range c.Related {
		out = append(out, strings.ToLower(r))
	}
	for _, t := range c.Tags {
		out = append(out, strings.ToLower(t))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Scored ranks every club by descending score. Ties keep directory order.
// n <= 0 returns all clubs.
func Scored(clubs []model.Club, query string, n int) []Result {
	tokens := Tokens(query)
	results := make([]Result, len(clubs))
	for i, c := range clubs {
		results[i] = Result{Club: c, Score: score(c, tokens)}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		return b.Score - a.Score
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

// Rank returns the TopN clubs for query. There is no minimum score: clubs
// scoring zero fill the list when fewer than TopN clubs match.
func Rank(clubs []model.Club, query string) []model.Club {
	results := Scored(clubs, query, TopN)
	out := make([]model.Club, len(results))
	for i, r := range results {
		out[i] = r.Club
	}
	return out
}
