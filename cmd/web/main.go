package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/text/language"
	"thirdcoast.systems/channelscribe/cmd/web/auth"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/internal/theme"
	"thirdcoast.systems/channelscribe/cmd/web/internal/web"
	"thirdcoast.systems/channelscribe/internal/application"
	"thirdcoast.systems/channelscribe/internal/config"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/internal/drive"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/internal/transcript"
	"thirdcoast.systems/channelscribe/pkg/utils/markdown"
	"thirdcoast.systems/channelscribe/pkg/ytdlp"

	langtag "thirdcoast.systems/channelscribe/pkg/utils/language"
)

const recentRunsLimit = 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(conf.ResultsDir, 0o755); err != nil {
		slog.Error("failed to create results directory", "dir", conf.ResultsDir, "error", err)
		os.Exit(1)
	}

	notice, err := markdown.Load(conf.PageNotice)
	if err != nil {
		slog.Error("failed to load page notice", "error", err)
		os.Exit(1)
	}

	var (
		history runs.History
		recent  *db.RecentRunsCache
	)
	if conf.HistoryEnabled() {
		pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		dbc, err := db.NewDatabaseConnection(ctx, pool)
		if err != nil {
			slog.Error("failed to create database connection", "error", err)
			os.Exit(1)
		}
		defer dbc.Close()

		q := dbc.Queries(ctx)
		recent, err = db.NewRecentRunsCache(ctx, q, recentRunsLimit)
		if err != nil {
			slog.Error("failed to load recent runs", "error", err)
			os.Exit(1)
		}
		history = q
	} else {
		slog.Info("DATABASE_DSN not set; run history disabled")
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	// A nil *drive.Uploader must not end up inside the interface.
	var dc runs.DriveClient
	redirect := conf.DriveRedirectURL
	if redirect == "" {
		redirect = "http://localhost" + addr + "/drive/callback"
	}
	driveOpts, err := conf.DriveOptions()
	if err != nil {
		slog.Error("invalid drive configuration", "error", err)
		os.Exit(1)
	}
	if uploader, err := drive.NewUploader(conf.DriveCredentialsFile, conf.DriveTokenFile, redirect, driveOpts...); err != nil {
		slog.Warn("google drive upload disabled", "credentials_file", conf.DriveCredentialsFile, "error", err)
	} else {
		dc = uploader
	}

	yt := ytdlp.New(conf.YtDlpPath)
	if v, err := yt.Version(ctx); err != nil {
		slog.Warn("yt-dlp not usable; channel listing will fail", "path", yt.PathOrDefault(), "error", err)
	} else {
		slog.Info("found yt-dlp", "version", v)
	}

	p := &pipeline.Pipeline{
		Lister:    yt,
		Fetcher:   transcript.New(conf.LanguageTag()),
		OutputDir: conf.OutputDir,
	}
	svc := runs.NewService(p, history, recent, langtag.Parse(conf.TranscriptLanguage, language.English))

	sessionMgr := auth.NewSessionManager(conf.SessionSecret)

	e, err := web.NewWebserver(ctx, svc, dc, recent, sessionMgr, web.Options{
		ResultsDir:        conf.ResultsDir,
		DefaultOutputFile: conf.DefaultOutputFile,
		DriveFolderID:     conf.DriveFolderID,
		Theme:             theme.Load(conf.BackgroundImage),
		Notice:            notice,
	})
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
