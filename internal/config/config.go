package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Publisher holds all runtime configuration for the roomcast binary.
type Publisher struct {
	ServerURL string
	APIKey    string
	APISecret string

	Room     string
	Identity string
	Name     string

	TrackName string
	Codec     string
	BitRate   int
	FPS       int

	SourceID      string
	CaptureCursor bool
	CaptureWindow bool
	SystemPicker  bool

	LogLevel string
}

// ParsePublisherFlags parses flags for the roomcast binary. Connection
// settings default from the ROOMCAST_URL, ROOMCAST_API_KEY and
// ROOMCAST_API_SECRET environment variables so credentials can stay out of
// shell history.
func ParsePublisherFlags() *Publisher {
	cfg := &Publisher{}
	flag.StringVar(&cfg.ServerURL, "url", envOr("ROOMCAST_URL", ""), "Signal server WebSocket URL")
	flag.StringVar(&cfg.APIKey, "api-key", envOr("ROOMCAST_API_KEY", ""), "API key for token minting")
	flag.StringVar(&cfg.APISecret, "api-secret", envOr("ROOMCAST_API_SECRET", ""), "API secret for token minting")
	flag.StringVar(&cfg.Room, "room", "dev_room", "Room to publish into")
	flag.StringVar(&cfg.Identity, "identity", "roomcast-bot", "Participant identity")
	flag.StringVar(&cfg.Name, "name", "Roomcast Bot", "Participant display name")
	flag.StringVar(&cfg.TrackName, "track", "screen_share", "Published track name")
	flag.StringVar(&cfg.Codec, "codec", "vp9", "Video codec (h264, vp8 or vp9)")
	flag.IntVar(&cfg.BitRate, "bitrate", 3_000_000, "Target video bitrate in bits per second")
	flag.IntVar(&cfg.FPS, "fps", 60, "Capture ticks per second")
	flag.StringVar(&cfg.SourceID, "source", "", "Capture source ID (skips the interactive picker)")
	flag.BoolVar(&cfg.CaptureCursor, "cursor", true, "Include the cursor in the capture")
	flag.BoolVar(&cfg.CaptureWindow, "window", false, "Capture a window instead of a whole screen")
	flag.BoolVar(&cfg.SystemPicker, "system-picker", false, "Use the platform's own source picker when available")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	return cfg
}

// Validate checks that the configuration can start a session.
func (c *Publisher) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL required (set -url or ROOMCAST_URL)")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("API credentials required (set -api-key/-api-secret or ROOMCAST_API_KEY/ROOMCAST_API_SECRET)")
	}
	if c.Room == "" {
		return fmt.Errorf("room name must not be empty")
	}
	if c.Identity == "" {
		return fmt.Errorf("identity must not be empty")
	}
	if c.TrackName == "" {
		return fmt.Errorf("track name must not be empty")
	}
	if c.BitRate <= 0 {
		return fmt.Errorf("bitrate must be positive, got %d", c.BitRate)
	}
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps out of range: %d", c.FPS)
	}
	return nil
}

// Interval converts the tick rate into the pump interval. The 60fps
// default lands on 16ms.
func (c *Publisher) Interval() time.Duration {
	return time.Duration(1000/c.FPS) * time.Millisecond
}

// Relay holds runtime configuration for the roomcast-signal binary.
type Relay struct {
	Addr      string
	APISecret string
	LogLevel  string
}

// ParseRelayFlags parses flags for the roomcast-signal binary.
func ParseRelayFlags() *Relay {
	cfg := &Relay{}
	flag.StringVar(&cfg.Addr, "addr", ":7880", "Listen address")
	flag.StringVar(&cfg.APISecret, "api-secret", envOr("ROOMCAST_API_SECRET", ""), "API secret for token verification (empty disables verification)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
