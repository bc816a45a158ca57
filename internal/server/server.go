package server

import (
	"backend-tripday/internal/auth"
	"backend-tripday/internal/bookmark"
	"backend-tripday/internal/config"
	"backend-tripday/internal/llm"
	"backend-tripday/internal/notify"
	"backend-tripday/internal/plan"
	"backend-tripday/internal/planner"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Notify *notify.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Notify: notify.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	generator := llm.NewClient(s.Cfg.OpenAIBaseURL, s.Cfg.OpenAIAPIKey, s.Cfg.OpenAIModel)
	sessions := planner.NewSessionStore(s.Redis)
	bookmarkSvc := bookmark.NewService(s.DB)
	plannerSvc := planner.NewService(sessions, generator, s.Notify)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, s.Redis))
	bookmark.RegisterRoutes(s.App.Group("/bookmarks"), bookmarkSvc, jwtMiddleware)
	planner.RegisterRoutes(s.App.Group("/planner"), plannerSvc, bookmarkSvc, jwtMiddleware)
	plan.RegisterRoutes(s.App.Group("/plans"), plan.NewService(s.DB), sessions, jwtMiddleware)
	llm.RegisterRoutes(s.App.Group("/generate"), generator, jwtMiddleware)
	notify.RegisterRoutes(s.App.Group("/notify"), s.Notify)
}
