package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Reads are public. Mutations require an authenticated administrator and
// are only registered when authentication is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(Recovery())
	router.Use(RequestID())
	router.Use(Logger())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.TaskQueue, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Editor, cfg.Authors, cfg.Diagnoser, cfg.AuditRecorder)
	seriesController := NewSeriesController(cfg.Series, cfg.Diagnoser, cfg.AuditRecorder)
	authorsController := NewAuthorsController(cfg.Authors, cfg.Diagnoser, cfg.AuditRecorder)
	genresController := NewGenresController(cfg.Genres, cfg.Diagnoser, cfg.AuditRecorder)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Books API endpoints
	api.GET("/books", booksController.SearchBooks)
	api.GET("/books/by-identifier", booksController.GetBookByIdentifier)
	api.GET("/books/by-author/:id", booksController.GetBooksByAuthor)
	api.GET("/books/by-series/:id", booksController.GetBooksBySeries)
	api.GET("/books/:id", booksController.GetBook)

	// Series API endpoints
	api.GET("/series", seriesController.ListSeries)
	api.GET("/series/lookup", seriesController.LookupSeries)
	api.GET("/series/:id", seriesController.GetSeries)

	// Authors API endpoints
	api.GET("/authors", authorsController.ListAuthors)
	api.GET("/authors/resolve", authorsController.ResolveAuthor)
	api.GET("/authors/:id", authorsController.GetAuthor)

	// Genres API endpoints
	api.GET("/genres", genresController.ListGenres)
	api.GET("/genres/:name", genresController.GetGenre)

	if cfg.AuthMiddleware == nil {
		return router
	}

	// Token endpoints
	tokens := NewTokenController(cfg.AuthMiddleware, cfg.TokenIssuer, cfg.AuditRecorder)
	api.GET("/auth/me", tokens.WhoAmI)
	if cfg.TokenIssuer != nil {
		api.POST("/auth/token", tokens.IssueToken)
	}

	admin := api.Group("")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())

	admin.POST("/books", booksController.CreateBook)
	admin.PATCH("/books/:id", booksController.EditBook)
	admin.DELETE("/books/:id", booksController.DeleteBook)

	admin.POST("/series", seriesController.CreateSeries)
	admin.DELETE("/series/:id", seriesController.DeleteSeries)
	admin.PUT("/series/:id/status", seriesController.SetStatus)
	admin.POST("/series/:id/increment", seriesController.Increment)
	admin.POST("/series/:id/decrement", seriesController.Decrement)

	admin.POST("/authors", authorsController.CreateAuthor)
	admin.PUT("/authors/:id/biography", authorsController.UpdateBiography)
	admin.PUT("/authors/:id/owner", authorsController.SetOwner)
	admin.DELETE("/authors/:id", authorsController.DeleteAuthor)

	admin.POST("/genres", genresController.CreateGenre)
	admin.POST("/genres/import", genresController.ImportTaxonomy)
	admin.PUT("/genres/:name", genresController.UpdateGenre)
	admin.PUT("/genres/:name/parent", genresController.SetParent)
	admin.DELETE("/genres/:name", genresController.DeleteGenre)

	// Audit log endpoints
	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		admin.GET("/audit", auditController.GetAuditEvents)
	}

	// Maintenance endpoints
	maintenance := NewMaintenanceController(cfg.TaskQueue, cfg.AuditRetentionDays)
	admin.POST("/maintenance/verify-series", maintenance.VerifySeries)
	admin.GET("/maintenance/tasks", maintenance.ListTaskTypes)
	admin.POST("/maintenance/tasks/:type/run", maintenance.RunTask)
	admin.GET("/maintenance/status/:id", maintenance.GetTaskStatus)

	return router
}
