// Command player is the headless display client daemon. It runs the
// playback state machine against the signage server and drives a
// renderer process over a line protocol: commands go out on stdout as
// JSON, renderer events and key presses come back on stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"signage/internal/logging"
	"signage/internal/player"
	"signage/internal/player/api"
)

type config struct {
	ServerURL          string        `envconfig:"SERVER_URL" default:"http://localhost:3000"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ConstrainedRuntime bool          `envconfig:"CONSTRAINED_RUNTIME" default:"false"`
	StallTimeout       time.Duration `envconfig:"STALL_TIMEOUT" default:"25s"`
	RefreshInterval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"30s"`
	HeartbeatInterval  time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"60s"`
}

func main() {
	godotenv.Load()

	var cfg config
	if err := envconfig.Process("player", &cfg); err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	logging.Info("Signage player starting (server %s)", cfg.ServerURL)

	client := api.New(cfg.ServerURL, cfg.RequestTimeout)
	surface := newPipeSurface(os.Stdout)
	engine := player.New(surface, client, player.RealClock(), player.Config{
		ConstrainedRuntime: cfg.ConstrainedRuntime,
		StallTimeout:       cfg.StallTimeout,
		RefreshInterval:    cfg.RefreshInterval,
		HeartbeatInterval:  cfg.HeartbeatInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		logging.Fatal("Could not start playback engine: %v", err)
	}

	go readRendererInput(os.Stdin, surface, engine)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)
	engine.Stop()
	logging.Info("Player stopped")
}

// readRendererInput dispatches renderer events and control keys to the
// engine until stdin closes.
func readRendererInput(r *os.File, surface *pipeSurface, engine *player.Engine) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")

		switch verb {
		case "ended":
			surface.dispatch(func(ev player.VideoEvents) { ev.Ended() })
		case "error":
			surface.dispatch(func(ev player.VideoEvents) { ev.Error(errors.New(arg)) })
		case "progress":
			surface.dispatch(func(ev player.VideoEvents) { ev.Progress() })
		case "stream-error":
			surface.dispatch(func(ev player.VideoEvents) { ev.FatalStreamError(errors.New(arg)) })
		case "position":
			if v, err := strconv.ParseFloat(arg, 64); err == nil {
				surface.setPosition(v)
			}
		case "readystate":
			if v, err := strconv.Atoi(arg); err == nil {
				surface.setReadyState(player.ReadyState(v))
			}
		case "interaction":
			engine.UserInteraction()
		case "pause":
			engine.TogglePause()
		case "next":
			engine.Next()
		case "prev":
			engine.Previous()
		case "mute":
			engine.ToggleMute()
		case "seek":
			if v, err := strconv.ParseFloat(arg, 64); err == nil {
				engine.Seek(v)
			}
		default:
			logging.Debug("Ignoring renderer input %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		logging.Warn("Renderer input closed: %v", err)
	}
}

// pipeSurface implements player.Surface by emitting one JSON command
// per line. Position and readiness are whatever the renderer last
// reported.
type pipeSurface struct {
	mu         sync.Mutex
	out        *json.Encoder
	events     player.VideoEvents
	haveVideo  bool
	paused     bool
	muted      bool
	position   float64
	readyState player.ReadyState
}

type command struct {
	Cmd   string   `json:"cmd"`
	URL   string   `json:"url,omitempty"`
	URLs  []string `json:"urls,omitempty"`
	Muted *bool    `json:"muted,omitempty"`
	Pos   *float64 `json:"pos,omitempty"`
	Show  *bool    `json:"show,omitempty"`
}

func newPipeSurface(w *os.File) *pipeSurface {
	return &pipeSurface{out: json.NewEncoder(w)}
}

func (s *pipeSurface) send(c command) error {
	if err := s.out.Encode(c); err != nil {
		return fmt.Errorf("writing renderer command: %w", err)
	}
	return nil
}

func (s *pipeSurface) dispatch(fn func(player.VideoEvents)) {
	s.mu.Lock()
	ok := s.haveVideo
	events := s.events
	s.mu.Unlock()
	if ok {
		fn(events)
	}
}

func (s *pipeSurface) setPosition(v float64) {
	s.mu.Lock()
	s.position = v
	s.mu.Unlock()
}

func (s *pipeSurface) setReadyState(v player.ReadyState) {
	s.mu.Lock()
	s.readyState = v
	s.mu.Unlock()
}

func (s *pipeSurface) LoadVideo(url string, events player.VideoEvents) error {
	s.mu.Lock()
	s.events = events
	s.haveVideo = true
	s.position = 0
	s.readyState = player.ReadyNothing
	s.mu.Unlock()
	return s.send(command{Cmd: "load", URL: url})
}

func (s *pipeSurface) Play(muted bool) error {
	s.mu.Lock()
	s.paused = false
	s.muted = muted
	s.mu.Unlock()
	return s.send(command{Cmd: "play", Muted: &muted})
}

func (s *pipeSurface) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.send(command{Cmd: "pause"})
}

func (s *pipeSurface) Seek(position float64) {
	s.send(command{Cmd: "seek", Pos: &position})
}

func (s *pipeSurface) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
	s.send(command{Cmd: "set-muted", Muted: &muted})
}

func (s *pipeSurface) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *pipeSurface) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *pipeSurface) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *pipeSurface) ReadyState() player.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyState
}

func (s *pipeSurface) ShowImage(url string) {
	s.send(command{Cmd: "image", URL: url})
}

func (s *pipeSurface) ShowCollage(urls []string) {
	s.send(command{Cmd: "collage", URLs: urls})
}

func (s *pipeSurface) ShowUnmutePrompt(visible bool) {
	s.send(command{Cmd: "unmute-prompt", Show: &visible})
}

func (s *pipeSurface) PlayAudio(url string, muted bool) error {
	return s.send(command{Cmd: "audio", URL: url, Muted: &muted})
}

func (s *pipeSurface) StopAudio() {
	s.send(command{Cmd: "audio-stop"})
}

func (s *pipeSurface) SetAudioMuted(muted bool) {
	s.send(command{Cmd: "audio-muted", Muted: &muted})
}
