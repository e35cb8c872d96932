package main

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/signaling"
)

func main() {
	cfg := config.ParseRelayFlags()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("bad log level %q: %v", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "main")

	hub := signaling.NewHub(signaling.HubConfig{APISecret: cfg.APISecret})

	http.Handle("/ws", hub)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rooms, participants := hub.Stats()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "roomcast signal relay\nrooms: %d\nparticipants: %d\n", rooms, participants)
	})

	if cfg.APISecret == "" {
		log.Warn("no API secret set, token verification disabled")
	}
	log.WithField("addr", cfg.Addr).Info("signal relay listening")
	log.Fatal(http.ListenAndServe(cfg.Addr, nil))
}
