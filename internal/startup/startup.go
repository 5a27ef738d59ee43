package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"signage/internal/logging"
	"signage/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration, populated from the
// environment (and an optional .env file).
type Config struct {
	Port    string `envconfig:"PORT" default:"3000"`
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	AdminToken     string `envconfig:"ADMIN_TOKEN"`
	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH"`

	MaxUploadMB           int64         `envconfig:"MAX_UPLOAD_MB" default:"2048"`
	MaxTranscodeQueue     int           `envconfig:"MAX_TRANSCODE_QUEUE" default:"25"`
	TranscodeConcurrency  int           `envconfig:"TRANSCODE_CONCURRENCY" default:"1"`
	TranscodeIdleTimeout  time.Duration `envconfig:"TRANSCODE_IDLE_TIMEOUT" default:"15m"`
	TranscodeTotalTimeout time.Duration `envconfig:"TRANSCODE_TOTAL_TIMEOUT" default:"0"`

	LogStaticFiles  bool `envconfig:"LOG_STATIC_FILES" default:"false"`
	LogHealthChecks bool `envconfig:"LOG_HEALTH_CHECKS" default:"true"`
	MetricsEnabled  bool `envconfig:"METRICS_ENABLED" default:"true"`

	// Derived paths
	UploadsDir    string `ignored:"true"`
	ThumbnailsDir string `ignored:"true"`
	HLSDir        string `ignored:"true"`
	LibraryPath   string `ignored:"true"`
}

// LoadConfig loads and validates configuration from the environment.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := godotenv.Load(); err == nil {
		logging.Info("  Loaded environment from .env")
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	// 0 means size the worker count from available CPUs.
	if config.TranscodeConcurrency <= 0 {
		config.TranscodeConcurrency = workers.ForCPU(0)
	}

	logging.Info("  PORT:                    %s", config.Port)
	logging.Info("  DATA_DIR:                %s", config.DataDir)
	logging.Info("  MAX_UPLOAD_MB:           %d", config.MaxUploadMB)
	logging.Info("  MAX_TRANSCODE_QUEUE:     %d", config.MaxTranscodeQueue)
	logging.Info("  TRANSCODE_CONCURRENCY:   %d", config.TranscodeConcurrency)
	logging.Info("  TRANSCODE_IDLE_TIMEOUT:  %s", config.TranscodeIdleTimeout)
	logging.Info("  LOG_STATIC_FILES:        %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:       %v", config.LogHealthChecks)
	logging.Info("  METRICS_ENABLED:         %v", config.MetricsEnabled)
	logging.Info("  LOG_LEVEL:               %s", logging.GetLevel())
	if config.AdminTokenHash != "" {
		logging.Info("  Admin auth:              bcrypt hash")
	} else if config.AdminToken != "" {
		logging.Info("  Admin auth:              plain token")
	} else {
		logging.Warn("  Admin auth:              DISABLED")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	config.DataDir = dataDir
	logging.Info("  Data directory (absolute): %s", dataDir)

	config.UploadsDir = filepath.Join(dataDir, "uploads")
	config.ThumbnailsDir = filepath.Join(dataDir, "thumbnails")
	config.HLSDir = filepath.Join(dataDir, "hls")
	config.LibraryPath = filepath.Join(dataDir, "library.json")

	for _, dir := range []struct{ path, name string }{
		{dataDir, "data"},
		{config.UploadsDir, "uploads"},
		{config.ThumbnailsDir, "thumbnails"},
		{config.HLSDir, "hls"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
	}

	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	return &config, nil
}

// LogEncoderInit logs transcode engine initialization and checks ffmpeg.
func LogEncoderInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODE ENGINE INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			logging.Warn("  Video processing may not work correctly")
		} else {
			logging.Info("  [OK] %s is available", tool)
		}
	}
}

// LogSchedulerInit logs transcode scheduler initialization.
func LogSchedulerInit(concurrency, maxPending int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODE SCHEDULER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Concurrency: %d", concurrency)
	logging.Info("  Max pending: %d", maxPending)
}

// LogBackfill logs the startup reconciliation result.
func LogBackfill(queued int) {
	if queued > 0 {
		logging.Info("  [OK] Queued %d adaptive packaging job(s)", queued)
	} else {
		logging.Info("  [OK] All adaptive packages present")
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Admin UI:    http://localhost:%s/admin", config.Port)
	logging.Info("    Player:      http://localhost:%s/player", config.Port)
	logging.Info("    API:         http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ _
  / ___/(_)___ _____  ____ _____ ____
  \__ \/ / __ '/ __ \/ __ '/ __ '/ _ \
 ___/ / / /_/ / / / / /_/ / /_/ /  __/
/____/_/\__, /_/ /_/\__,_/\__, /\___/
       /____/            /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access is confirmed regardless.
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(lines[0]))
	}
	return nil
}
