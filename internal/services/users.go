package services

import (
	"context"
	"strings"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/models"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	defaultPrefixLimit = 10
	backfillPageSize   = 200
)

// UserService owns profile documents and keeps their search fields in
// step with username and displayName.
type UserService struct {
	users   repositories.UserRepository
	matcher *search.Matcher
	logger  *logger.Logger
}

func NewUserService(users repositories.UserRepository, matcher *search.Matcher, logger *logger.Logger) *UserService {
	return &UserService{users: users, matcher: matcher, logger: logger}
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CreateProfile stores the profile of actor id. The username must be free.
func (s *UserService) CreateProfile(ctx context.Context, id, email string, req *models.CreateUserRequest) (*models.User, error) {
	username := NormalizeUsername(req.Username)
	taken, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, ErrUsernameTaken
	}
	if email == "" {
		email = req.Email
	}

	f := search.Build(username, req.DisplayName)
	user, err := s.users.CreateUser(ctx, id, &models.User{
		Username:     username,
		Email:        email,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		AvatarURL:    req.AvatarURL,
		IsPrivate:    req.IsPrivate,
		SearchText:   f.Text,
		SearchGrams2: f.Grams2,
		SearchGrams3: f.Grams3,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "username": username}).Info("Profile created")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req. When username or
// displayName change the three search fields are rewritten in the same
// update.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := docstore.Fields{}
	username, displayName := user.Username, user.DisplayName
	if req.Username != nil && NormalizeUsername(*req.Username) != user.Username {
		username = NormalizeUsername(*req.Username)
		taken, err := s.users.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken != nil && taken.ID != id {
			return nil, ErrUsernameTaken
		}
		fields["username"] = username
	}
	if req.DisplayName != nil && *req.DisplayName != user.DisplayName {
		displayName = *req.DisplayName
		fields["displayName"] = displayName
	}
	if len(fields) > 0 {
		for k, v := range searchFields(username, displayName) {
			fields[k] = v
		}
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		fields["avatarUrl"] = *req.AvatarURL
	}
	if req.IsPrivate != nil {
		fields["isPrivate"] = *req.IsPrivate
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.users.UpdateUser(ctx, id, fields); err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", id).Info("Profile updated")
	return s.GetByID(ctx, id)
}

// Search ranks users matching term by username and display name.
func (s *UserService) Search(ctx context.Context, term string, limit int) ([]search.Result, error) {
	return s.matcher.Search(ctx, term, limit)
}

// SearchByPrefix lists users whose username starts with prefix.
func (s *UserService) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	prefix = NormalizeUsername(prefix)
	if prefix == "" {
		return []*models.User{}, nil
	}
	if limit <= 0 {
		limit = defaultPrefixLimit
	}
	return s.users.SearchByUsernamePrefix(ctx, prefix, limit)
}

// BackfillSearchFields rewrites the search fields of every user whose
// stored fields differ from a fresh build. It returns how many users were
// updated.
func (s *UserService) BackfillSearchFields(ctx context.Context) (int, error) {
	var (
		updated int
		after   *docstore.Cursor
	)
	for {
		page, err := s.users.ListUsers(ctx, after, backfillPageSize)
		if err != nil {
			return updated, err
		}
		for _, u := range page.Items {
			f := search.Build(u.Username, u.DisplayName)
			if f.Text == u.SearchText && equalStrings(f.Grams2, u.SearchGrams2) && equalStrings(f.Grams3, u.SearchGrams3) {
				continue
			}
			if err := s.users.UpdateUser(ctx, u.ID, searchFields(u.Username, u.DisplayName)); err != nil {
				return updated, err
			}
			updated++
		}
		if !page.HasMore {
			break
		}
		after = page.Next
	}
	s.logger.WithField("updated", updated).Info("Search fields backfilled")
	return updated, nil
}

func searchFields(username, displayName string) docstore.Fields {
	f := search.Build(username, displayName)
	return docstore.Fields{
		search.FieldText:   f.Text,
		search.FieldGrams2: f.Grams2,
		search.FieldGrams3: f.Grams3,
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
