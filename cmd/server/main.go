// Package main is the entry point for the GCS service HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RanaPoddar/gcs-service/internal/config"
	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/flightlog"
	"github.com/RanaPoddar/gcs-service/internal/notify"
	"github.com/RanaPoddar/gcs-service/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Load the fleet definition if one is configured
	var fleet *config.Fleet
	if cfg.Fleet.File != "" {
		fleet, err = config.LoadFleet(cfg.Fleet.File)
		if err != nil {
			log.Fatalf("Failed to load fleet file: %v", err)
		}
		log.Printf("Loaded fleet definition with %d drones", len(fleet.Drones))
	}

	registry := drone.NewRegistry()

	// Event delivery: console always, dashboard WebSocket hub always,
	// MQTT and flight-log persistence when configured.
	hub := notify.NewHub()
	defer hub.Close()
	sinks := notify.MultiSink{notify.NewConsoleSink(), hub}

	if cfg.Notify.MQTTBroker != "" {
		mqttSink, err := notify.NewMQTTSink(cfg.Notify.MQTTBroker, cfg.Notify.MQTTClientID)
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		defer mqttSink.Close()
		sinks = append(sinks, mqttSink)
		log.Printf("Publishing events to MQTT broker %s", cfg.Notify.MQTTBroker)
	}

	// Flight-log persistence is optional; without it the service keeps
	// no history.
	var flightLogRepo flightlog.Repository
	if cfg.Database.Enabled {
		db, err := flightlog.Open(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to flight-log database: %v", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}()

		repo := flightlog.NewPostgresRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repo.Migrate(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to migrate flight-log schema: %v", err)
		}
		flightLogRepo = repo
		sinks = append(sinks, flightlog.NewSink(repo))

		recorder := flightlog.NewRecorder(repo, registry, 5*time.Second)
		recorder.Start()
		defer recorder.Stop()

		log.Println("Flight-log persistence enabled")
	}

	// Create server dependencies
	deps := &server.Dependencies{
		Config:        cfg,
		Registry:      registry,
		Fleet:         fleet,
		Hub:           hub,
		Sink:          sinks,
		FlightLogRepo: flightLogRepo,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.New(deps),
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for a shutdown signal, then drain in-flight requests and
	// close every vehicle link before the deferred cleanup runs.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	registry.CloseAll()
}
