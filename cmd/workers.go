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
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"

	"github.com/blnkfinance/notifier"
	"github.com/blnkfinance/notifier/config"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	redisOpt, err := notifier.RedisClientOpt(conf)
	if err != nil {
		return nil, err
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: conf.Queue.WorkerCount,
		Queues: map[string]int{
			conf.Queue.RetryQueue:   2,
			conf.Queue.WebhookQueue: 1,
		},
		Logger: logrus.StandardLogger(),
	})
	return srv, nil
}

func initializeTaskHandlers(app *notifierInstance, mux *asynq.ServeMux) {
	mux.HandleFunc(notifier.TaskRetryFailed, app.notifier.ProcessRetryTask)
	mux.HandleFunc(notifier.TaskWebhook, notifier.ProcessWebhook)
}

// startMonitoring serves the asynqmon dashboard under /monitoring.
func startMonitoring(conf *config.Configuration, redisOpt asynq.RedisClientOpt) {
	if conf.Queue.MonitoringPort == "" {
		return
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/monitoring",
		RedisConnOpt: redisOpt,
	})
	addr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)

	go func() {
		log.Printf("asynqmon listening on %s/monitoring", addr)
		if err := http.ListenAndServe(addr, h); err != nil {
			log.Fatalf("could not start asynqmon server: %v", err)
		}
	}()
}

// workerCommands returns the command that runs the retry and webhook workers.
func workerCommands(app *notifierInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start notifier workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf := app.cnf

			srv, err := initializeWorkerServer(conf)
			if err != nil {
				log.Fatalf("Error initializing worker server: %v", err)
			}

			redisOpt, err := notifier.RedisClientOpt(conf)
			if err != nil {
				log.Fatalf("Error parsing redis address: %v", err)
			}
			startMonitoring(conf, redisOpt)

			mux := asynq.NewServeMux()
			initializeTaskHandlers(app, mux)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("Error running worker server: %v", err)
			}
		},
	}

	return cmd
}
