// Package emerald is the backend for a counselling-practice website: a blog
// with admin-only publishing, media uploads with public URLs, a booking
// intake, and a live comment channel, built with Echo and SQLite or Postgres.
//
// Consumers provide their own templ components via the ViewFuncs struct for
// the HTML pages; the JSON API under /api/ works without any views.
package emerald

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ViewFuncs holds user-provided templ components. Page routes are only
// registered for the components that are set; the JSON API is always
// available.
type ViewFuncs struct {
	Home        func(posts []BlogPost, actor Actor) templ.Component
	Post        func(post BlogPost, comments []Comment, actor Actor) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central application. It wires together the store, repository,
// media gateway, booking intake, session bus, middleware, and routes. All
// clients are constructed explicitly here and injected downward; there is no
// package-level shared state.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    Store
	Repo     *Repository
	Gateway  *MediaGateway
	Bookings *BookingIntake
	Sessions *SessionBus
	Views    ViewFuncs

	bucket       Bucket
	loginLimiter *LoginLimiter
	staticDir    string
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes every component and runs the server until it stops.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// setup wires store, repository, gateway, intake, session bus, middleware,
// and routes without starting the listener.
func (a *App) setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("emerald: SessionSecret is required")
	}

	if a.Store == nil {
		store, err := a.openStore()
		if err != nil {
			return fmt.Errorf("emerald: init store: %w", err)
		}
		a.Store = store
	}

	if a.bucket == nil {
		a.bucket = NewFSBucket(a.Config.MediaDir, a.Config.URL)
	}

	a.Repo = NewRepository(a.Store, a.Config.PostCacheTTL)
	a.Gateway = NewMediaGateway(a.bucket, a.Config.MediaNamespace)
	a.Bookings = NewBookingIntake(a.Store)
	a.Sessions = NewSessionBus()
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// openStore picks Postgres when a database URL is configured, SQLite
// otherwise.
func (a *App) openStore() (Store, error) {
	if a.Config.DatabaseURL != "" {
		return NewPostgresStore(context.Background(), a.Config.DatabaseURL)
	}
	return NewSQLiteStore(a.Config.DatabasePath)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/media", a.Config.MediaDir)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/feed.xml", a.handleFeed)

	api := e.Group("/api")

	api.POST("/auth/signup", a.handleSignup)
	api.POST("/auth/login", a.handleLogin)
	api.POST("/auth/logout", a.handleLogout)
	api.GET("/session", a.handleSession)

	api.GET("/posts", a.handleListPosts)
	api.POST("/posts", a.handleCreatePost)
	api.GET("/posts/:id", a.handleGetPost)
	api.DELETE("/posts/:id", a.handleDeletePost)

	api.GET("/posts/:id/comments", a.handleListComments)
	api.POST("/posts/:id/comments", a.handleCreateComment)
	api.GET("/posts/:id/comments/stream", a.handleCommentStream)

	api.POST("/book-session", a.handleBookSession)
	api.GET("/bookings", a.handleListBookings)

	api.POST("/upload-media", a.handleUploadMedia)

	// HTML pages, only when the consumer supplies views.
	if a.Views.Home != nil {
		e.GET("/", a.handleHome)
	}
	if a.Views.Post != nil {
		e.GET("/blog/:id/", a.handlePostPage)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
