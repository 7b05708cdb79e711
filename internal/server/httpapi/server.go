// Package httpapi is the HTTP boundary of the server: routing, auth
// middleware, input validation, and the uniform error envelope.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/config"
	"github.com/vkarpins/stashkeeper/internal/server/services"
)

// Server wires the domain services into a gin router.
type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	users    *services.UserService
	folders  *services.FolderService
	contents *services.ContentService
	tags     *services.TagService
}

// NewServer constructs the HTTP boundary around the given services.
func NewServer(cfg *config.Config, logger logging.Logger,
	users *services.UserService, folders *services.FolderService,
	contents *services.ContentService, tags *services.TagService) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		users:    users,
		folders:  folders,
		contents: contents,
		tags:     tags,
	}
}

// Router builds the gin engine with all routes and middleware registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logRequests(s.logger))

	router.GET("/metrics", metricsHandler(s.cfg.MetricsPassword))

	api := router.Group("/api")

	// Credential endpoints are rate limited per IP; verify goes in too,
	// its six-digit code is guessable without a throttle. Token refresh
	// is not limited, it authenticates by possession of the refresh token.
	authLimited := api.Group("/auth", rateLimiter(s.cfg.AuthRateLimit))
	authLimited.POST("/register", s.handleRegister)
	authLimited.POST("/login", s.handleLogin)
	authLimited.POST("/verify", s.handleVerifyEmail)
	authLimited.POST("/password/forgot", s.handleForgotPassword)
	authLimited.POST("/password/reset", s.handleResetPassword)

	api.POST("/auth/refresh", s.handleRefresh)
	api.POST("/auth/logout", s.handleLogout)

	secret := []byte(s.cfg.SecretKey)
	protected := api.Group("", requireAuth(secret))

	protected.GET("/me", s.handleMe)
	protected.POST("/auth/logout_all", s.handleLogoutAll)

	protected.POST("/folders", s.handleCreateFolder)
	protected.GET("/folders", s.handleListRootFolders)
	protected.GET("/folders/tree", s.handleFolderTree)
	protected.GET("/folders/:id", s.handleGetFolder)
	protected.GET("/folders/:id/children", s.handleListChildren)
	protected.GET("/folders/:id/counts", s.handleFolderCounts)
	protected.GET("/folders/:id/contents", s.handleListFolderContents)
	protected.PUT("/folders/:id", s.handleUpdateFolder)
	protected.DELETE("/folders/:id", s.handleDeleteFolder)

	protected.POST("/contents", s.handleCreateContent)
	protected.GET("/contents/recent", s.handleRecentContents)
	protected.GET("/contents/most_viewed", s.handleMostViewed)
	protected.GET("/contents/search", s.handleSearch)
	protected.GET("/contents/:id", s.handleGetContent)
	protected.PUT("/contents/:id", s.handleUpdateContent)
	protected.PUT("/contents/:id/favorite", s.handleSetFavorite)
	protected.DELETE("/contents/:id", s.handleDeleteContent)

	protected.POST("/tags", s.handleCreateTag)
	protected.GET("/tags", s.handleListTags)
	protected.GET("/tags/:id/contents", s.handleListTagContents)
	protected.PUT("/tags/:id", s.handleUpdateTag)
	protected.DELETE("/tags/:id", s.handleDeleteTag)

	return router
}
