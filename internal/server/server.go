package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/handler"
	appmw "github.com/zeroup-initiative/partner-backend/internal/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e     *echo.Echo
	app   *app.App
	sha   string
	build string
}

func New(cfg *config.Config, a *app.App, authMw *appmw.AuthMiddleware, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.AllowedOriginSuffix),
	}))

	contributionHandler := handler.NewContributionHandler(a.Contributions)
	ledgerHandler := handler.NewLedgerHandler(a.Ledger, a.Achievements, a.Risk, a.Leaderboard, cfg.LeaderboardSize)
	notificationHandler := handler.NewNotificationHandler(a.Notifications)
	adminHandler := handler.NewAdminHandler(a.Contributions, a.Notifications, a.Accounts, a.Repos.Users)
	var userHandler *handler.UserHandler
	if authMw.Client() != nil {
		userHandler = handler.NewUserHandler(authMw.Client(), a.Ledger, a.Achievements)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api", authMw.RequireAuth)
	api.POST("/contributions", contributionHandler.Submit)
	api.GET("/me/contributions", contributionHandler.ListMine)
	api.GET("/me/contributions.csv", contributionHandler.ExportCSV)
	api.GET("/me/ledger", ledgerHandler.Get)
	api.GET("/me/ledger/stream", ledgerHandler.Stream)
	api.GET("/me/achievements", ledgerHandler.Achievements)
	api.GET("/me/risk", ledgerHandler.Risk)
	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/stream", notificationHandler.Stream)
	api.POST("/notifications/read", notificationHandler.MarkAllRead)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.DELETE("/notifications/:id", notificationHandler.Delete)
	api.GET("/leaderboard", ledgerHandler.Leaderboard)
	if userHandler != nil {
		api.GET("/users/:uid/public", userHandler.GetPublic)
	}

	admin := api.Group("/admin", authMw.RequireAdmin)
	admin.POST("/contributions/:id/approve", adminHandler.Approve)
	admin.POST("/contributions/:id/decline", adminHandler.Decline)
	admin.PUT("/contributions/:id/reason", adminHandler.UpdateReason)
	admin.POST("/projects/announce", adminHandler.AnnounceProject)
	admin.DELETE("/users/:uid", adminHandler.DeleteUser)

	return &Server{e: e, app: a, sha: sha, build: buildTime}
}

func allowOrigin(suffix string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		if suffix != "" && strings.HasSuffix(u.Hostname(), suffix) {
			return true, nil
		}
		return false, nil
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// SetDB swaps in the connection once it is ready; until then repositories
// answer ErrDBNotReady.
func (s *Server) SetDB(db *gorm.DB) {
	s.app.Repos.SetDB(db)
}
