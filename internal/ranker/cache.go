package ranker

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mission-control/internal/model"
)

// Ranker ranks a fixed club list, memoizing results per distinct token set.
// The club list must not change after construction.
type Ranker struct {
	clubs []model.Club
	cache *lru.Cache[string, []model.Club]
}

// New creates a Ranker over clubs. cacheSize <= 0 disables memoization.
func New(clubs []model.Club, cacheSize int) (*Ranker, error) {
	r := &Ranker{clubs: clubs}
	if cacheSize > 0 {
		c, err := lru.New[string, []model.Club](cacheSize)
		if err != nil {
			return nil, eris.Wrap(err, "ranker: create cache")
		}
		r.cache = c
	}
	return r, nil
}

// Rank returns the TopN clubs for query.
func (r *Ranker) Rank(query string) []model.Club {
	if r.cache == nil {
		return Rank(r.clubs, query)
	}

	// Queries with the same token set score identically.
	key := strings.Join(Tokens(query), " ")
	if hit, ok := r.cache.Get(key); ok {
		return slices.Clone(hit)
	}
	ranked := Rank(r.clubs, query)
	r.cache.Add(key, slices.Clone(ranked))
	return ranked
}

// CacheLen returns the number of memoized queries.
func (r *Ranker) CacheLen() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
