package repositories

import (
	"context"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
)

const CollectionUsers = "users"

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, id string, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fields docstore.Fields) error
	DeleteUser(ctx context.Context, id string) error
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error)
	FindByAnyGram(ctx context.Context, field string, grams []string, limit int) ([]*models.User, error)
	ListUsers(ctx context.Context, after *docstore.Cursor, limit int) (*Page[models.User], error)
	AdjustFollowersCount(ctx context.Context, id string, delta int) error
	AdjustFollowingCount(ctx context.Context, id string, delta int) error
	AdjustPostsCount(ctx context.Context, id string, delta int) error
	SubscribeUser(ctx context.Context, id string, fn func(*models.User, error)) (docstore.Unsubscribe, error)
}

// DocumentUserRepository implements UserRepository on a docstore.Store
type DocumentUserRepository struct {
	repo *Repository[models.User]
}

// NewDocumentUserRepository creates a new DocumentUserRepository
func NewDocumentUserRepository(store docstore.Store) *DocumentUserRepository {
	return &DocumentUserRepository{repo: NewRepository[models.User](store, CollectionUsers)}
}

// CreateUser stores a profile under the caller-assigned id.
func (r *DocumentUserRepository) CreateUser(ctx context.Context, id string, user *models.User) (*models.User, error) {
	return r.repo.CreateWithID(ctx, id, user)
}

func (r *DocumentUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *DocumentUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *DocumentUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.repo.FindOne(ctx, docstore.Query{
		Where: []docstore.Filter{docstore.Where("username", docstore.OpEqual, username)},
	})
}

func (r *DocumentUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.repo.FindOne(ctx, docstore.Query{
		Where: []docstore.Filter{docstore.Where("email", docstore.OpEqual, email)},
	})
}

func (r *DocumentUserRepository) UpdateUser(ctx context.Context, id string, fields docstore.Fields) error {
	return r.repo.Update(ctx, id, fields)
}

func (r *DocumentUserRepository) DeleteUser(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// SearchByUsernamePrefix is a range scan over usernames starting with prefix.
func (r *DocumentUserRepository) SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("username", docstore.OpGreaterOrEqual, prefix),
			docstore.Where("username", docstore.OpLess, prefix+"\uf8ff"),
		},
		OrderBy: []docstore.Order{docstore.Asc("username")},
		Limit:   limit,
	})
}

// FindByAnyGram returns users whose gram field shares at least one gram
// with grams. grams must hold at most docstore.MaxDisjunction entries.
func (r *DocumentUserRepository) FindByAnyGram(ctx context.Context, field string, grams []string, limit int) ([]*models.User, error) {
	return r.repo.Find(ctx, docstore.Query{
		Where: []docstore.Filter{docstore.Where(field, docstore.OpArrayContainsAny, grams)},
		Limit: limit,
	})
}

// ListUsers walks the whole collection in id order.
func (r *DocumentUserRepository) ListUsers(ctx context.Context, after *docstore.Cursor, limit int) (*Page[models.User], error) {
	return r.repo.FindPage(ctx, docstore.Query{
		OrderBy:    []docstore.Order{docstore.Asc(docstore.FieldID)},
		StartAfter: after,
	}, limit)
}

func (r *DocumentUserRepository) AdjustFollowersCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldFollowersCount, delta)
}

func (r *DocumentUserRepository) AdjustFollowingCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldFollowingCount, delta)
}

func (r *DocumentUserRepository) AdjustPostsCount(ctx context.Context, id string, delta int) error {
	return r.repo.AdjustCounter(ctx, id, models.FieldPostsCount, delta)
}

func (r *DocumentUserRepository) SubscribeUser(ctx context.Context, id string, fn func(*models.User, error)) (docstore.Unsubscribe, error) {
	return r.repo.SubscribeByID(ctx, id, fn)
}
