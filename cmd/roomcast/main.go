package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/capture"
	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/inhibit"
	"github.com/roomcast/roomcast/internal/permissions"
	"github.com/roomcast/roomcast/internal/pipeline"
	"github.com/roomcast/roomcast/internal/session"
	"github.com/roomcast/roomcast/internal/token"
	"github.com/roomcast/roomcast/internal/track"
)

func main() {
	cfg := config.ParsePublisherFlags()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("bad log level %q: %v", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "main")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	codec, err := track.ParseCodec(cfg.Codec)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.WithFields(logrus.Fields{
		"url":      cfg.ServerURL,
		"room":     cfg.Room,
		"identity": cfg.Identity,
		"track":    cfg.TrackName,
		"codec":    codec,
	}).Info("roomcast starting")

	if !permissions.HasScreenRecording() {
		log.Warn("screen recording permission not granted, requesting")
		permissions.RequestScreenRecording()
		log.Fatal("grant Screen Recording permission in System Settings and restart")
	}

	authToken, err := token.New(cfg.APIKey, cfg.APISecret).
		WithIdentity(cfg.Identity).
		WithName(cfg.Name).
		WithGrant(token.VideoGrant{RoomJoin: true, Room: cfg.Room, CanPublish: true}).
		JWT()
	if err != nil {
		log.Fatalf("mint token: %v", err)
	}

	selector, err := track.NewSelector(track.EncoderConfig{Codec: codec, BitRate: cfg.BitRate})
	if err != nil {
		log.Fatalf("codec selector: %v", err)
	}

	sess, err := session.Connect(cfg.ServerURL, authToken, session.Config{
		Room:     cfg.Room,
		Identity: cfg.Identity,
		Selector: selector,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer sess.Close()

	kind := capture.SourceScreen
	if cfg.CaptureWindow {
		kind = capture.SourceWindow
	}

	pipe := pipeline.New(cfg.TrackName)
	engine, err := capture.NewEngine(pipe.HandleFrame, capture.Options{
		Kind:          kind,
		IncludeCursor: cfg.CaptureCursor,
		SystemPicker:  cfg.SystemPicker,
	})
	if err != nil {
		log.Fatalf("capture init: %v", err)
	}
	defer engine.Close()

	source, err := selectSource(engine, cfg.SourceID)
	if err != nil {
		log.Fatalf("select source: %v", err)
	}
	if source != nil {
		log.WithFields(logrus.Fields{"id": source.ID, "title": source.Title}).Info("sharing source")
	}

	if err := engine.Start(source); err != nil {
		log.Fatalf("capture start: %v", err)
	}

	inhibitor := inhibit.New("roomcast")
	if err := inhibitor.Acquire("screen sharing in progress"); err != nil {
		log.WithError(err).Debug("screensaver inhibit unavailable")
	}
	defer inhibitor.Release()

	pump := pipeline.NewPump(engine, pipe.Ready(), sess, pipeline.Config{
		Selector: selector,
		Interval: cfg.Interval(),
		Publish: session.PublishOptions{
			Source:     session.TrackSourceScreenshare,
			VideoCodec: codec,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("sharing, press Ctrl+C to stop")
	runErr := pump.Run(ctx)

	stats := pipe.Stats()
	log.WithFields(logrus.Fields{
		"frames":             stats.Frames,
		"transient_errors":   stats.TransientErrors,
		"permanent_errors":   stats.PermanentErrors,
		"resolution_changes": stats.ResolutionChanges,
	}).Info("capture finished")
	if sink := pipe.Sink(); sink != nil {
		sink.Close()
	}

	if runErr != nil {
		log.Fatalf("publish: %v", runErr)
	}
}

// selectSource resolves which capture source to share: a forced -source ID,
// or the engine's enumeration run through the picker rules.
func selectSource(engine *capture.Engine, forced string) (*capture.Source, error) {
	sources, err := engine.Sources()
	if err != nil {
		return nil, err
	}

	if forced != "" {
		for i := range sources {
			if sources[i].ID == forced {
				return &sources[i], nil
			}
		}
		return nil, fmt.Errorf("source %q not found", forced)
	}

	return capture.ChooseSource(sources, promptSource)
}

// promptSource is the interactive picker: a numbered list on stdout, one
// line of input on stdin.
func promptSource(sources []capture.Source) (*capture.Source, error) {
	fmt.Println("Select a source to share:")
	for i, s := range sources {
		fmt.Printf("  [%d] %s\n", i+1, s.Title)
	}
	fmt.Print("> ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	line = strings.TrimSpace(line)
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(sources) {
		return nil, fmt.Errorf("invalid selection %q", line)
	}
	return &sources[n-1], nil
}
