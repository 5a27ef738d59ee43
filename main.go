package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signage/internal/handlers"
	"signage/internal/library"
	"signage/internal/logging"
	"signage/internal/metrics"
	"signage/internal/middleware"
	"signage/internal/probe"
	"signage/internal/queue"
	"signage/internal/startup"
	"signage/internal/store"
	"signage/internal/transcoder"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize the transcode engine and media inspector
	startup.LogEncoderInit()
	encoder := transcoder.New(transcoder.Config{
		IdleTimeout:  config.TranscodeIdleTimeout,
		TotalTimeout: config.TranscodeTotalTimeout,
	})
	inspector := probe.New(config.TranscodeIdleTimeout)

	// Initialize the transcode scheduler
	startup.LogSchedulerInit(config.TranscodeConcurrency, config.MaxTranscodeQueue)
	scheduler := queue.New(queue.Config{
		MaxPending:  config.MaxTranscodeQueue,
		Concurrency: config.TranscodeConcurrency,
	})

	// Initialize the library service
	svc := library.New(store.New(config.LibraryPath), scheduler, encoder, inspector, library.Paths{
		Uploads:    config.UploadsDir,
		Thumbnails: config.ThumbnailsDir,
		HLS:        config.HLSDir,
	})
	if err := svc.RecordRestart(); err != nil {
		startup.LogFatal("Failed to open library: %v", err)
	}

	// Reconcile the library against the on-disk adaptive packages, then
	// start dispatching. Jobs queued by the backfill stay pending until
	// Start so the scan completes before any encode begins.
	queued, err := svc.Backfill()
	if err != nil {
		startup.LogFatal("Startup reconciliation failed: %v", err)
	}
	startup.LogBackfill(queued)
	scheduler.Start()

	// Initialize metrics
	var collector *metrics.Collector
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(svc, 30*time.Second)
		collector.Start()
	}

	// Initialize handlers
	h := handlers.New(svc, scheduler, config)

	// Setup router
	router := setupRouter(h, config)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	var metered http.Handler = loggedHandler
	if config.MetricsEnabled {
		metered = middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)
	}

	// Apply compression middleware
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(metered)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, scheduler, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// playerPaths are write endpoints the display client calls; the player
// runs unattended and carries no admin credential.
var playerPaths = map[string]bool{
	"/api/player/status": true,
	"/api/player/events": true,
}

// writeAuth applies admin token verification to mutating requests only.
// Reads stay open so the display client can fetch the playlist and
// stream media without a credential.
func writeAuth(config middleware.AuthConfig) func(http.Handler) http.Handler {
	requireAuth := middleware.RequireAuth(config)
	return func(next http.Handler) http.Handler {
		authed := requireAuth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				if playerPaths[r.URL.Path] {
					next.ServeHTTP(w, r)
					return
				}
				authed.ServeHTTP(w, r)
			}
		})
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Health check routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/api/health", h.HealthCheck).Methods("GET")

	if config.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API routes; writes require the admin token
	api := r.PathPrefix("/api").Subrouter()
	api.Use(writeAuth(middleware.AuthConfig{
		Token:     config.AdminToken,
		TokenHash: config.AdminTokenHash,
	}))

	// Media library
	api.HandleFunc("/videos", h.ListVideos).Methods("GET")
	api.HandleFunc("/videos", h.Upload).Methods("POST")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods("GET")
	api.HandleFunc("/videos/{id}", h.UpdateVideo).Methods("PATCH")
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods("DELETE")
	api.HandleFunc("/videos/{id}/stream", h.StreamVideo).Methods("GET")

	// Playlist
	api.HandleFunc("/playlist", h.GetPlaylist).Methods("GET")
	api.HandleFunc("/playlist", h.SetPlaylist).Methods("PUT")

	// Photo groups
	api.HandleFunc("/photo-groups", h.ListPhotoGroups).Methods("GET")
	api.HandleFunc("/photo-groups", h.CreatePhotoGroup).Methods("POST")
	api.HandleFunc("/photo-groups/{id}", h.GetPhotoGroup).Methods("GET")
	api.HandleFunc("/photo-groups/{id}", h.UpdatePhotoGroup).Methods("PATCH")
	api.HandleFunc("/photo-groups/{id}", h.DeletePhotoGroup).Methods("DELETE")
	api.HandleFunc("/photo-groups/{id}/photos", h.AddPhoto).Methods("POST")
	api.HandleFunc("/photo-groups/{id}/photos/{photoId}", h.DeletePhoto).Methods("DELETE")

	// Settings and stats
	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PATCH")
	api.HandleFunc("/settings/apply-image-duration", h.ApplyImageDuration).Methods("POST")
	api.HandleFunc("/settings/photo-audio", h.GetPhotoAudio).Methods("GET")
	api.HandleFunc("/settings/photo-audio", h.SetPhotoAudio).Methods("POST")
	api.HandleFunc("/settings/photo-audio", h.DeletePhotoAudio).Methods("DELETE")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/stats/errors", h.ClearErrors).Methods("DELETE")
	api.HandleFunc("/maintenance/cleanup-thumbnails", h.CleanupThumbnails).Methods("POST")

	// Player telemetry
	api.HandleFunc("/player/status", h.PlayerStatusPing).Methods("POST")
	api.HandleFunc("/player/events", h.PlayerEvent).Methods("POST")

	// Media files; HLS segments and thumbnails are plain static trees,
	// progressive streams go through the Range-capable upload dir.
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.UploadsDir))))
	r.PathPrefix("/thumbnails/").Handler(http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(config.ThumbnailsDir))))
	r.PathPrefix("/hls/").Handler(http.StripPrefix("/hls/", http.FileServer(http.Dir(config.HLSDir))))

	// Web UIs
	r.PathPrefix("/admin").Handler(http.StripPrefix("/admin", http.FileServer(http.Dir("./static/admin"))))
	r.PathPrefix("/player").Handler(http.StripPrefix("/player", http.FileServer(http.Dir("./static/player"))))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusFound)
	}).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, scheduler *queue.Scheduler, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Draining transcode scheduler")
	if err := scheduler.Shutdown(ctx); err != nil {
		logging.Warn("Scheduler drain error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Transcode scheduler drained")
	}

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
