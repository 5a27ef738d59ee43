package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"signage/internal/procrun"
)

// DefaultTimeout bounds a single ffprobe invocation (idle and total).
const DefaultTimeout = 2 * time.Minute

// ErrProbe indicates ffprobe produced output that could not be parsed.
var ErrProbe = errors.New("unparseable probe output")

// Runner abstracts process execution so tests can substitute canned output.
type Runner func(command string, args []string, opts procrun.Options) (string, error)

// VideoInfo holds the structural metadata extracted from a video file.
// Absent streams leave the corresponding fields at their zero values.
type VideoInfo struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Codec      string  `json:"codec"`
	AudioCodec string  `json:"audioCodec"`
}

// ImageInfo holds the pixel dimensions of an image file.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Inspector extracts media metadata by invoking ffprobe.
type Inspector struct {
	run     Runner
	timeout time.Duration
}

// New creates an Inspector that shells out to ffprobe with the given
// idle/total timeout. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration) *Inspector {
	return NewWithRunner(procrun.Run, timeout)
}

// NewWithRunner creates an Inspector with a custom process runner.
func NewWithRunner(run Runner, timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Inspector{run: run, timeout: timeout}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Video probes a video file for duration, dimensions and codec names.
// Missing streams yield zero-valued fields rather than an error; only a
// completely unparseable ffprobe response fails.
func (i *Inspector) Video(path string) (*VideoInfo, error) {
	out, err := i.run("ffprobe", []string{
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_name,codec_type,width,height",
		"-of", "json",
		path,
	}, i.options())
	if err != nil {
		return nil, err
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	info := &VideoInfo{}
	if parsed.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = dur
		}
	}
	for _, stream := range parsed.Streams {
		if info.Width == 0 && stream.Width > 0 && stream.Height > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			info.Codec = stream.CodecName
		}
		if info.AudioCodec == "" && stream.CodecType == "audio" {
			info.AudioCodec = stream.CodecName
		}
	}
	return info, nil
}

// Image probes an image file for its pixel dimensions.
func (i *Inspector) Image(path string) (*ImageInfo, error) {
	out, err := i.run("ffprobe", []string{
		"-v", "error",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	}, i.options())
	if err != nil {
		return nil, err
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	info := &ImageInfo{}
	if len(parsed.Streams) > 0 {
		info.Width = parsed.Streams[0].Width
		info.Height = parsed.Streams[0].Height
	}
	return info, nil
}

func (i *Inspector) options() procrun.Options {
	return procrun.Options{
		IdleTimeout:  i.timeout,
		TotalTimeout: i.timeout,
	}
}
