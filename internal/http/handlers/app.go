package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"dormstore/internal/config"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
	"dormstore/internal/services"
)

//go:embed views/*.html
var viewFS embed.FS

// Views returns the template engine for the HTML pages (receipts).
func Views() *html.Engine {
	sub, err := fs.Sub(viewFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(db *sqlx.DB, cfg config.Config) *fiber.App {
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}

	app := fiber.New(fiber.Config{
		Views:        Views(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(helmet.New())

	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = config.Default().RateLimitPerMin
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMin,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/healthz")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, retry soon"})
		},
	}))
	app.Use("/api/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}))

	Mount(app, NewDeps(db, cfg, authSvc))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})
	return app
}
