package routers

import (
	"io"
	"runtime"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/factory"
	"github.com/listenup/listenup-server/version"
)

// router is a struct to hold the dependencies for setting up routes,
// allowing us to break down the monolithic New() function into smaller,
// more manageable methods.
type router struct {
	app  *fiber.App
	ctrl *factory.ApplicationControllers
}

func New(appConfig *config.AppConfig, ctrl *factory.ApplicationControllers) *fiber.App {
	// --- Fiber App Configuration ---
	templateEngine := html.New(appConfig.Client.Path, ".html")

	if appConfig.Client.Debug {
		templateEngine.Reload(true)
		templateEngine.Debug(true)
	}

	cnf := fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		Views:       templateEngine,
		AppName:     "listenup version: " + version.Version + " runtime: " + runtime.Version(),
	}

	if appConfig.Client.ProxyHeader != "" {
		cnf.ProxyHeader = appConfig.Client.ProxyHeader
	}

	// --- App Initialization & Middleware ---
	app := fiber.New(cnf)

	app.Use(logger.New(logger.Config{
		Done: func(c *fiber.Ctx, logString []byte) {
			appConfig.Logger.Debugln(string(logString))
		},
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}",
		Output: io.Discard,
	}))

	if appConfig.Client.PrometheusConf.Enable {
		prometheus := fiberprometheus.New("listenup")
		prometheus.RegisterAt(app, appConfig.Client.PrometheusConf.MetricsPath)
		app.Use(prometheus.Middleware)
	}

	app.Use(rr.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "POST,GET,OPTIONS",
	}))
	app.Static("/assets", appConfig.Client.Path+"/assets")

	// --- Route Registration ---
	r := &router{
		app:  app,
		ctrl: ctrl,
	}

	r.registerBaseRoutes()
	r.registerAPIRoutes()
	r.registerAuthRoutes()

	// --- Final Catch-All 404 Handler ---
	// This MUST be the last middleware to be registered.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	})

	return app
}

func (r *router) registerBaseRoutes() {
	r.app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("index", nil)
	})
	r.app.Get("/download/export/:token", r.ctrl.ExportController.HandleDownloadExport)
	r.app.Get("/healthcheck", r.ctrl.HealthCheckController.HandleHealthCheck)
}

// registerAPIRoutes wires the public JSON API the web player talks to.
func (r *router) registerAPIRoutes() {
	api := r.app.Group("/api")
	api.Post("/search", r.ctrl.PodcastController.HandlePodcastSearch)
	api.Post("/process", r.ctrl.EpisodeController.HandleProcessEpisode)
	api.Get("/status", r.ctrl.EpisodeController.HandleProcessingStatus)
	api.Get("/segments", r.ctrl.EpisodeController.HandleSegments)
	api.Get("/cache/:episodeId", r.ctrl.EpisodeController.HandleCachedEpisode)
	api.Get("/audio", r.ctrl.EpisodeController.HandleAudio)
}

// registerAuthRoutes wires the maintenance API, guarded by the HMAC header
// check.
func (r *router) registerAuthRoutes() {
	auth := r.app.Group("/auth", r.ctrl.AuthController.HandleAuthHeaderCheck)
	auth.Get("/episodes", r.ctrl.AdminController.HandleListEpisodes)

	episode := auth.Group("/episode")
	episode.Post("/purge", r.ctrl.AdminController.HandlePurgeEpisode)

	export := auth.Group("/export")
	export.Post("/getDownloadToken", r.ctrl.ExportController.HandleGenerateExportToken)
}
