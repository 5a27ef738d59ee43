package probe

import (
	"errors"
	"testing"
	"time"

	"signage/internal/procrun"
)

func fakeRunner(output string, err error) (Runner, *[][]string) {
	var calls [][]string
	run := func(command string, args []string, opts procrun.Options) (string, error) {
		call := append([]string{command}, args...)
		calls = append(calls, call)
		return output, err
	}
	return run, &calls
}

func TestVideoFullMetadata(t *testing.T) {
	output := `{
		"format": {"duration": "93.5"},
		"streams": [
			{"codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
			{"codec_name": "aac", "codec_type": "audio"}
		]
	}`
	run, calls := fakeRunner(output, nil)
	insp := NewWithRunner(run, time.Minute)

	info, err := insp.Video("/tmp/test.mp4")
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	if info.Duration != 93.5 {
		t.Errorf("Expected duration 93.5, got %v", info.Duration)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("Expected 1920x1080, got %dx%d", info.Width, info.Height)
	}
	if info.Codec != "h264" {
		t.Errorf("Expected codec h264, got %s", info.Codec)
	}
	if info.AudioCodec != "aac" {
		t.Errorf("Expected audio codec aac, got %s", info.AudioCodec)
	}
	if len(*calls) != 1 || (*calls)[0][0] != "ffprobe" {
		t.Errorf("Expected a single ffprobe invocation, got %v", *calls)
	}
}

func TestVideoMissingStreams(t *testing.T) {
	tests := []struct {
		name   string
		output string
		check  func(t *testing.T, info *VideoInfo)
	}{
		{
			name:   "no audio stream",
			output: `{"format": {"duration": "10"}, "streams": [{"codec_name": "vp9", "codec_type": "video", "width": 640, "height": 360}]}`,
			check: func(t *testing.T, info *VideoInfo) {
				if info.AudioCodec != "" {
					t.Errorf("Expected empty audio codec, got %s", info.AudioCodec)
				}
				if info.Codec != "vp9" {
					t.Errorf("Expected vp9, got %s", info.Codec)
				}
			},
		},
		{
			name:   "no streams at all",
			output: `{"format": {}, "streams": []}`,
			check: func(t *testing.T, info *VideoInfo) {
				if info.Width != 0 || info.Height != 0 || info.Codec != "" {
					t.Errorf("Expected zero-valued fields, got %+v", info)
				}
			},
		},
		{
			name:   "unparseable duration",
			output: `{"format": {"duration": "N/A"}, "streams": []}`,
			check: func(t *testing.T, info *VideoInfo) {
				if info.Duration != 0 {
					t.Errorf("Expected duration 0, got %v", info.Duration)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, _ := fakeRunner(tt.output, nil)
			insp := NewWithRunner(run, time.Minute)
			info, err := insp.Video("/tmp/test.mp4")
			if err != nil {
				t.Fatalf("Video() error: %v", err)
			}
			tt.check(t, info)
		})
	}
}

func TestVideoUnparseableOutput(t *testing.T) {
	run, _ := fakeRunner("not json at all", nil)
	insp := NewWithRunner(run, time.Minute)

	_, err := insp.Video("/tmp/test.mp4")
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if !errors.Is(err, ErrProbe) {
		t.Errorf("Expected ErrProbe, got %v", err)
	}
}

func TestVideoRunnerFailure(t *testing.T) {
	runErr := errors.New("ffprobe exploded")
	run, _ := fakeRunner("", runErr)
	insp := NewWithRunner(run, time.Minute)

	_, err := insp.Video("/tmp/test.mp4")
	if !errors.Is(err, runErr) {
		t.Errorf("Expected runner error to propagate, got %v", err)
	}
}

func TestImage(t *testing.T) {
	run, _ := fakeRunner(`{"streams": [{"width": 800, "height": 600}]}`, nil)
	insp := NewWithRunner(run, time.Minute)

	info, err := insp.Image("/tmp/photo.jpg")
	if err != nil {
		t.Fatalf("Image() error: %v", err)
	}
	if info.Width != 800 || info.Height != 600 {
		t.Errorf("Expected 800x600, got %dx%d", info.Width, info.Height)
	}
}

func TestImageNoStreams(t *testing.T) {
	run, _ := fakeRunner(`{"streams": []}`, nil)
	insp := NewWithRunner(run, time.Minute)

	info, err := insp.Image("/tmp/photo.jpg")
	if err != nil {
		t.Fatalf("Image() error: %v", err)
	}
	if info.Width != 0 || info.Height != 0 {
		t.Errorf("Expected zero dimensions, got %dx%d", info.Width, info.Height)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	var captured procrun.Options
	run := func(command string, args []string, opts procrun.Options) (string, error) {
		captured = opts
		return `{"streams": []}`, nil
	}
	insp := NewWithRunner(run, 0)
	if _, err := insp.Image("/tmp/photo.jpg"); err != nil {
		t.Fatalf("Image() error: %v", err)
	}
	if captured.IdleTimeout != DefaultTimeout || captured.TotalTimeout != DefaultTimeout {
		t.Errorf("Expected default timeouts, got %+v", captured)
	}
}
