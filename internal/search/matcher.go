package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anonto42/mockup-social/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// MinTermLength is the shortest normalized term that is searched.
	MinTermLength = 2
	// MaxQueryGrams caps the grams sent in one array-contains-any query.
	MaxQueryGrams = 10

	defaultLimit          = 20
	defaultCandidateLimit = 50
)

// CandidateSource finds users whose gram field shares at least one gram
// with grams.
type CandidateSource interface {
	FindByAnyGram(ctx context.Context, field string, grams []string, limit int) ([]*models.User, error)
}

// Result is a ranked match.
type Result struct {
	User  *models.User `json:"user"`
	Score float64      `json:"score"`
}

type Options struct {
	// CandidateLimit is the result ceiling of each gram query.
	CandidateLimit int
	// DefaultLimit applies when Search is called with limit <= 0.
	DefaultLimit int
	// Cache is optional.
	Cache ResultCache
}

// Matcher answers substring searches over usernames and display names.
type Matcher struct {
	source CandidateSource
	opts   Options
}

func NewMatcher(source CandidateSource, opts Options) *Matcher {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = defaultCandidateLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	return &Matcher{source: source, opts: opts}
}

// Search returns up to limit users matching term, best first. Terms that
// normalize to fewer than two characters and terms without candidates
// yield an empty list.
func (m *Matcher) Search(ctx context.Context, term string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = m.opts.DefaultLimit
	}
	q := Normalize(term)
	if len([]rune(q)) < MinTermLength {
		return []Result{}, nil
	}

	key := cacheKey(q, limit)
	if m.opts.Cache != nil {
		if cached, ok := m.opts.Cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	g2 := Grams(q, 2)
	g3 := Grams(q, 3)
	candidates, err := m.candidates(ctx, g2, g3)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, u := range candidates {
		if !containsAll(u.SearchGrams2, g2) || !containsAll(u.SearchGrams3, g3) {
			continue
		}
		results = append(results, Result{User: u, Score: Score(u, q)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].User.Username < results[j].User.Username
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if m.opts.Cache != nil {
		m.opts.Cache.Set(ctx, key, results)
	}
	return results, nil
}

// candidates runs the 2-gram and 3-gram queries concurrently and merges
// them by id.
func (m *Matcher) candidates(ctx context.Context, g2, g3 []string) ([]*models.User, error) {
	var byGrams2, byGrams3 []*models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byGrams2, err = m.source.FindByAnyGram(gctx, FieldGrams2, capGrams(g2), m.opts.CandidateLimit)
		return err
	})
	if len(g3) > 0 {
		g.Go(func() error {
			var err error
			byGrams3, err = m.source.FindByAnyGram(gctx, FieldGrams3, capGrams(g3), m.opts.CandidateLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(byGrams2)+len(byGrams3))
	var out []*models.User
	for _, u := range append(byGrams2, byGrams3...) {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}

// Score ranks a user against a normalized term.
func Score(u *models.User, term string) float64 {
	var score float64
	username := Normalize(u.Username)
	switch {
	case strings.HasPrefix(username, term):
		score += 100
	case strings.Contains(username, term):
		score += 50
	}
	displayName := Normalize(u.DisplayName)
	switch {
	case displayName == "":
	case strings.HasPrefix(displayName, term):
		score += 80
	case strings.Contains(displayName, term):
		score += 40
	}
	return score + min(float64(u.FollowersCount)*0.01, 5)
}

func capGrams(grams []string) []string {
	if len(grams) > MaxQueryGrams {
		return grams[:MaxQueryGrams]
	}
	return grams
}

func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, g := range have {
		set[g] = struct{}{}
	}
	for _, g := range want {
		if _, ok := set[g]; !ok {
			return false
		}
	}
	return true
}

func cacheKey(term string, limit int) string {
	return fmt.Sprintf("search:users:%d:%s", limit, term)
}
