package status

import (
	"strconv"

	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/feature/collection"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Config holds the status server settings.
type Config struct {
	// Enabled turns the HTTP server on. Daemon mode enables it by default.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Port is the port the server listens on.
	Port string `mapstructure:"port" default:"8080"`
}

// Server exposes run statistics and the modification report.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *zap.Logger
}

// New builds the server and registers its routes.
func New(cfg Config, runStats *stats.Manager, rep *report.Report, coll *collection.Collection, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"counters": runStats.Counters(),
		}
		if coll != nil {
			body["sync_state"] = coll.State()
			body["albums"] = len(coll.Albums())
			body["unavailable_albums"] = coll.Unavailable.Names()
		}
		return c.JSON(body)
	})

	app.Get("/report", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "100"))
		if err != nil || limit <= 0 {
			limit = 100
		}
		return c.JSON(fiber.Map{
			"total":   rep.Len(),
			"entries": rep.Tail(limit),
		})
	})

	return &Server{app: app, cfg: cfg, logger: logger}
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("status server listening", zap.String("port", s.cfg.Port))
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
