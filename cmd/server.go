/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/notifier/api"
	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/traces"
)

const (
	certStoragePath   = "certmagic"
	heartbeatInterval = 5 * time.Minute
	defaultPosthogURL = "https://us.i.posthog.com"
)

// serveTLS serves r over HTTPS with certificates managed by CertMagic.
// Without a configured domain it falls back to localhost.
func serveTLS(r *gin.Engine, conf config.ServerConfig) error {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = conf.Email
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: certStoragePath}

	domains := []string{conf.Domain}
	if conf.Domain == "" {
		log.Println("No domain specified, defaulting to localhost")
		domains = []string{"localhost"}
	}

	if err := cfg.ManageSync(context.Background(), domains); err != nil {
		return err
	}

	server := &http.Server{
		Addr:      ":" + conf.Port,
		Handler:   r,
		TLSConfig: cfg.TLSConfig(),
	}

	log.Printf("Starting HTTPS server on %s\n", conf.Port)
	if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func sendHeartbeat(client posthog.Client, heartbeatID string) {
	ticker := time.NewTicker(heartbeatInterval)
	go func() {
		for range ticker.C {
			if err := client.Enqueue(posthog.Capture{
				DistinctId: heartbeatID,
				Event:      "server_heartbeat",
				Properties: map[string]interface{}{
					"timestamp": time.Now().UTC(),
				},
			}); err != nil {
				log.Printf("Failed to send heartbeat: %v", err)
			}
		}
	}()
}

func initializePostHog(cfg config.TelemetryConfig) (posthog.Client, error) {
	endpoint := cfg.PosthogBaseURL
	if endpoint == "" {
		endpoint = defaultPosthogURL
	}
	client, err := posthog.NewWithConfig(cfg.PosthogKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		return nil, err
	}
	sendHeartbeat(client, uuid.New().String())
	return client, nil
}

func startServer(router *gin.Engine, cfg config.ServerConfig) error {
	if cfg.SSL {
		return serveTLS(router, cfg)
	}
	log.Printf("Starting server on http://localhost:%s", cfg.Port)
	return router.Run(":" + cfg.Port)
}

// serverCommands returns the command that starts the HTTP API.
func serverCommands(app *notifierInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start notifier server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cfg := app.cnf

			shutdown, err := traces.Setup(ctx, cfg.ProjectName, cfg.Telemetry.TracingEndpoint)
			if err != nil {
				log.Fatalf("error setting up tracing: %v", err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			if cfg.Telemetry.Enabled && cfg.Telemetry.PosthogKey != "" {
				phClient, err := initializePostHog(cfg.Telemetry)
				if err != nil {
					log.Printf("posthog disabled: %v", err)
				} else {
					defer phClient.Close()
				}
			}

			router := api.NewAPI(app.notifier).Router()
			if err := startServer(router, cfg.Server); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
