package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, users ...*models.User) *repositories.DocumentUserRepository {
	t.Helper()
	repo := repositories.NewDocumentUserRepository(docstore.NewMemoryStore())
	for _, u := range users {
		f := Build(u.Username, u.DisplayName)
		u.SearchText, u.SearchGrams2, u.SearchGrams3 = f.Text, f.Grams2, f.Grams3
		_, err := repo.CreateUser(context.Background(), u.ID, u)
		require.NoError(t, err)
	}
	return repo
}

func usernames(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.User.Username
	}
	return out
}

func TestMatcherScenario(t *testing.T) {
	repo := seedUsers(t,
		&models.User{ID: "u1", Username: "ana", DisplayName: "Ana Silva"},
		&models.User{ID: "u2", Username: "bruno", DisplayName: "Bruno Costa"},
		&models.User{ID: "u3", Username: "mariana", DisplayName: ""},
	)
	m := NewMatcher(repo, Options{})
	ctx := context.Background()

	results, err := m.Search(ctx, "an", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "mariana"}, usernames(results))

	results, err = m.Search(ctx, "Silva", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana"}, usernames(results))

	results, err = m.Search(ctx, "xyz", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatcherShortTerms(t *testing.T) {
	m := NewMatcher(seedUsers(t, &models.User{ID: "u1", Username: "ana"}), Options{})
	for _, term := range []string{"", " ", "a", " Á "} {
		results, err := m.Search(context.Background(), term, 10)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results, term)
	}
}

func TestMatcherResultsCoverTermGrams(t *testing.T) {
	repo := seedUsers(t,
		&models.User{ID: "u1", Username: "carla", DisplayName: "Carla Lima"},
		&models.User{ID: "u2", Username: "carlos", DisplayName: "Carlos Alberto"},
		&models.User{ID: "u3", Username: "lara", DisplayName: "Lara Croft"},
		&models.User{ID: "u4", Username: "alan", DisplayName: "Alan Turing"},
	)
	m := NewMatcher(repo, Options{})

	for _, term := range []string{"ar", "carl", "lar", "la", "ima", "alberto"} {
		results, err := m.Search(context.Background(), term, 10)
		require.NoError(t, err)
		q := Normalize(term)
		for _, r := range results {
			assert.Subset(t, r.User.SearchGrams2, Grams(q, 2), term)
			assert.Subset(t, r.User.SearchGrams3, Grams(q, 3), term)
			assert.Contains(t, r.User.SearchText, q, term)
		}
	}
}

func TestMatcherRanking(t *testing.T) {
	repo := seedUsers(t,
		&models.User{ID: "u1", Username: "xsilva", DisplayName: "Silva"},
		&models.User{ID: "u2", Username: "silva", DisplayName: ""},
		&models.User{ID: "u3", Username: "bia", DisplayName: "Bia Silva", FollowersCount: 200},
		&models.User{ID: "u4", Username: "cris", DisplayName: "Cris Silva"},
	)
	m := NewMatcher(repo, Options{})

	results, err := m.Search(context.Background(), "silva", 10)
	require.NoError(t, err)
	// xsilva: 50+80, silva: 100, bia: 40+2, cris: 40
	assert.Equal(t, []string{"xsilva", "silva", "bia", "cris"}, usernames(results))
	assert.InDelta(t, 42.0, results[2].Score, 0.001)

	limited, err := m.Search(context.Background(), "silva", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestScoreFollowerBonusIsCapped(t *testing.T) {
	u := &models.User{Username: "ana", FollowersCount: 1_000_000}
	assert.InDelta(t, 105.0, Score(u, "ana"), 0.001)
}

type countingSource struct {
	mu     sync.Mutex
	fields []string
	grams  [][]string
	err    error
}

func (s *countingSource) FindByAnyGram(_ context.Context, field string, grams []string, _ int) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, field)
	s.grams = append(s.grams, grams)
	return nil, s.err
}

func TestMatcherQueryShape(t *testing.T) {
	src := &countingSource{}
	m := NewMatcher(src, Options{})

	_, err := m.Search(context.Background(), "ab", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{FieldGrams2}, src.fields, "two-character terms skip the 3-gram query")

	src = &countingSource{}
	m = NewMatcher(src, Options{})
	_, err = m.Search(context.Background(), "abcdefghijklmnop", 5)
	require.NoError(t, err)
	require.Len(t, src.grams, 2)
	for _, g := range src.grams {
		assert.Len(t, g, MaxQueryGrams)
	}
}

func TestMatcherPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("unavailable")
	m := NewMatcher(&countingSource{err: boom}, Options{})
	_, err := m.Search(context.Background(), "ana", 5)
	assert.ErrorIs(t, err, boom)
}

type mapCache map[string][]Result

func (c mapCache) Get(_ context.Context, key string) ([]Result, bool) {
	r, ok := c[key]
	return r, ok
}

func (c mapCache) Set(_ context.Context, key string, results []Result) { c[key] = results }

func TestMatcherUsesCache(t *testing.T) {
	c := mapCache{}
	src := &countingSource{}
	m := NewMatcher(src, Options{Cache: c})

	_, err := m.Search(context.Background(), "Ana", 5)
	require.NoError(t, err)
	_, err = m.Search(context.Background(), "ana", 5)
	require.NoError(t, err)

	assert.Len(t, src.fields, 2, "second search is served from cache")
	assert.Contains(t, c, cacheKey("ana", 5))
}
