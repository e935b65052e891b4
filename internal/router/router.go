package router

import (
	"net/http"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/internal/handlers"
	"github.com/anonto42/mockup-social/backend/internal/middleware"
	"github.com/anonto42/mockup-social/backend/internal/repositories"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/anonto42/mockup-social/backend/internal/services"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// Deps are the collaborators SetupRoutes wires the API from.
type Deps struct {
	Store  docstore.Store
	Logger *logger.Logger
	// Verifier is nil when the actor comes from gateway headers.
	Verifier middleware.TokenVerifier
	Search   search.Options
}

// Services is the service layer built by NewServices.
type Services struct {
	Users      *services.UserService
	Graph      *services.SocialGraph
	Activities *services.ActivityService
	Engagement *services.Engagement
	Feed       *services.FeedService
}

// NewServices builds repositories and services over a store.
func NewServices(store docstore.Store, log *logger.Logger, searchOpts search.Options) *Services {
	userRepo := repositories.NewDocumentUserRepository(store)
	postRepo := repositories.NewDocumentPostRepository(store)
	commentRepo := repositories.NewDocumentCommentRepository(store)
	likeRepo := repositories.NewDocumentLikeRepository(store)
	followRepo := repositories.NewDocumentFollowRepository(store)
	activityRepo := repositories.NewDocumentActivityRepository(store)

	activities := services.NewActivityService(activityRepo, userRepo, postRepo, commentRepo, log)
	graph := services.NewSocialGraph(userRepo, followRepo, activities, log)
	return &Services{
		Users:      services.NewUserService(userRepo, search.NewMatcher(userRepo, searchOpts), log),
		Graph:      graph,
		Activities: activities,
		Engagement: services.NewEngagement(userRepo, postRepo, commentRepo, likeRepo, activities, log),
		Feed:       services.NewFeedService(userRepo, postRepo, commentRepo, likeRepo, graph),
	}
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) *Services {
	svc := NewServices(deps.Store, deps.Logger, deps.Search)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "mockup-social api"})
	})

	api := e.Group("/api/v1")
	api.Use(middleware.Actor(deps.Verifier))
	if deps.Verifier != nil {
		deps.Logger.Info("ID token verification applied to /api/v1 group")
	} else {
		deps.Logger.Warn("Actor identity taken from gateway headers")
	}

	handlers.NewUserHandler(svc.Users).RegisterProfileRoutes(api)
	handlers.NewPostHandler(svc.Engagement, svc.Feed).RegisterPostRoutes(api)
	handlers.NewFeedHandler(svc.Feed).RegisterFeedRoutes(api)
	handlers.NewFollowHandler(svc.Graph).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(svc.Engagement, svc.Feed).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(svc.Engagement, svc.Feed).RegisterLikeRoutes(api)
	handlers.NewActivityHandler(svc.Activities).RegisterActivityRoutes(api)

	deps.Logger.Info("All routes configured")
	return svc
}
