package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"thirdcoast.systems/channelscribe/cmd/web/auth"
	"thirdcoast.systems/channelscribe/cmd/web/ctxkeys"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/api/run_api"
	authhandlers "thirdcoast.systems/channelscribe/cmd/web/handlers/auth"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/content"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/internal/theme"
	staticpkg "thirdcoast.systems/channelscribe/cmd/web/internal/web/utils/static"
	"thirdcoast.systems/channelscribe/cmd/web/templates"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/pkg/utils/markdown"
	"thirdcoast.systems/channelscribe/static"
)

type Options struct {
	ResultsDir        string
	DefaultOutputFile string
	DriveFolderID     string
	Theme             theme.Theme
	Notice            *markdown.Markdown
}

type Webserver struct {
	*echo.Echo
	sessionManager *auth.SessionManager
	staticCache    *staticpkg.Cache
	runs           *runs.Service
	drive          runs.DriveClient
	recent         *db.RecentRunsCache
	opts           Options
}

// NewWebserver wires the routes. dc is nil when Drive is not configured and
// recent is nil when run history is disabled.
func NewWebserver(ctx context.Context, svc *runs.Service, dc runs.DriveClient, recent *db.RecentRunsCache, sessionManager *auth.SessionManager, opts Options) (*Webserver, error) {
	staticCache, err := staticpkg.NewCache(static.FS)
	if err != nil {
		return nil, err
	}

	webserver := &Webserver{
		Echo:           echo.New(),
		sessionManager: sessionManager,
		staticCache:    staticCache,
		runs:           svc,
		drive:          dc,
		recent:         recent,
		opts:           opts,
	}

	if err = webserver.registerRoutes(); err != nil {
		return nil, err
	}

	if err = webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	return webserver, nil
}

// isSSE matches datastar requests, which are answered with an event stream.
func isSSE(c echo.Context) bool {
	return c.Request().Header.Get("Datastar-Request") == "true"
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("64K"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: isSSE,
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	// Page styling for templates.
	s.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), ctxkeys.Theme, s.opts.Theme)
			ctx = context.WithValue(ctx, ctxkeys.Notice, s.opts.Notice)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	return nil
}

func (s *Webserver) registerRoutes() error {
	upload := templates.UploadOptions{
		Configured: s.drive != nil,
		FolderID:   s.opts.DriveFolderID,
	}

	apiGroup := s.Group("/api")
	apiGroup.POST("/runs", run_api.HandleCreate(s.runs, run_api.CreateOptions{
		ResultsDir:        s.opts.ResultsDir,
		DefaultOutputFile: s.opts.DefaultOutputFile,
		Upload:            upload,
	}))
	apiGroup.POST("/runs/:id/upload", run_api.HandleUpload(s.runs, s.drive, s.opts.DriveFolderID))

	s.GET("/runs/:id/download", run_api.HandleDownload(s.runs))

	driveGroup := s.Group("/drive")
	driveGroup.GET("/auth", authhandlers.HandleDriveAuth(s.sessionManager, s.drive))
	driveGroup.GET("/callback", authhandlers.HandleDriveCallback(s.sessionManager, s.drive))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Static file serving
	s.GET("/static/*", s.staticCache.Handler("/static/"))

	s.GET("/", content.HandleHomePage(s.runs, s.recent, s.opts.DefaultOutputFile, upload))

	return nil
}
