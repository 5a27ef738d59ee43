package transcoder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"signage/internal/procrun"
)

const (
	// DefaultIdleTimeout terminates an ffmpeg run that produces no
	// progress output. Encodes report progress continuously, so a silent
	// process is a hung process.
	DefaultIdleTimeout = 15 * time.Minute

	// segmentDuration is the target HLS segment length in seconds.
	segmentDuration = "4"
)

// EncodeError describes a failed transcode or packaging operation.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Runner abstracts process execution so tests can substitute a fake.
type Runner func(command string, args []string, opts procrun.Options) (string, error)

// Config controls ffmpeg watchdog timeouts.
type Config struct {
	// IdleTimeout terminates encodes with no output activity.
	IdleTimeout time.Duration
	// TotalTimeout caps total encode time. Zero disables it; long source
	// files make any fixed ceiling a guess.
	TotalTimeout time.Duration
}

// DefaultConfig returns the production timeout configuration.
func DefaultConfig() Config {
	return Config{IdleTimeout: DefaultIdleTimeout}
}

// Engine converts uploaded media into normalized and adaptive streamable
// assets by invoking ffmpeg through the process runner.
type Engine struct {
	run    Runner
	config Config
}

// New creates an Engine that shells out to ffmpeg.
func New(config Config) *Engine {
	return NewWithRunner(procrun.Run, config)
}

// NewWithRunner creates an Engine with a custom process runner.
func NewWithRunner(run Runner, config Config) *Engine {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	return &Engine{run: run, config: config}
}

func (e *Engine) options() procrun.Options {
	return procrun.Options{
		IdleTimeout:  e.config.IdleTimeout,
		TotalTimeout: e.config.TotalTimeout,
	}
}

// NormalizeToMP4 re-encodes the input into the playback baseline: H.264 at
// a fixed quality target, AAC audio, and a faststart layout so progressive
// playback can begin before the download completes.
func (e *Engine) NormalizeToMP4(input, output string) error {
	_, err := e.run("ffmpeg", []string{
		"-y",
		"-i", input,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "22",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		output,
	}, e.options())
	if err != nil {
		return &EncodeError{Op: "normalize", Err: err}
	}
	return nil
}

// ThumbnailSeek returns the frame extraction offset for a video of the
// given duration: a fixed 5s into long videos, the midpoint otherwise.
func ThumbnailSeek(duration float64) float64 {
	if duration > 10 {
		return 5
	}
	if duration < 0 {
		return 0
	}
	return duration / 2
}

// Thumbnail extracts a single frame at the given seek offset.
func (e *Engine) Thumbnail(input, output string, seekSeconds float64) error {
	if seekSeconds < 0 {
		seekSeconds = 0
	}
	_, err := e.run("ffmpeg", []string{
		"-y",
		"-ss", fmt.Sprintf("%g", seekSeconds),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		output,
	}, e.options())
	if err != nil {
		return &EncodeError{Op: "thumbnail", Err: err}
	}
	return nil
}

// BuildAdaptivePackage encodes the selected rendition ladder into
// outputDir, one subdirectory per rendition with its own segment series
// and sub-manifest, then writes the master manifest listing them all.
func (e *Engine) BuildAdaptivePackage(input, outputDir string, sourceHeight int) error {
	renditions := SelectRenditions(sourceHeight)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return &EncodeError{Op: "package", Err: err}
	}

	for _, r := range renditions {
		if err := e.buildRendition(input, outputDir, r); err != nil {
			return err
		}
	}

	if err := writeMasterManifest(outputDir, renditions); err != nil {
		return &EncodeError{Op: "package", Err: err}
	}
	return nil
}

func (e *Engine) buildRendition(input, outputDir string, r Rendition) error {
	variantDir := filepath.Join(outputDir, r.Name)
	if err := os.MkdirAll(variantDir, 0o755); err != nil {
		return &EncodeError{Op: "package " + r.Name, Err: err}
	}

	_, err := e.run("ffmpeg", []string{
		"-y",
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "21",
		"-profile:v", "high",
		"-level", "4.1",
		"-vf", fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", r.Width, r.Height),
		// Keyframe cadence aligned to segment boundaries.
		"-g", "48",
		"-keyint_min", "48",
		"-sc_threshold", "0",
		"-b:v", r.Bitrate,
		"-maxrate", r.MaxRate,
		"-bufsize", r.BufSize,
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "48000",
		"-ac", "2",
		"-hls_time", segmentDuration,
		"-hls_playlist_type", "vod",
		"-hls_list_size", "0",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", filepath.Join(variantDir, "segment_%05d.ts"),
		filepath.Join(variantDir, "index.m3u8"),
	}, e.options())
	if err != nil {
		return &EncodeError{Op: "package " + r.Name, Err: err}
	}
	return nil
}
