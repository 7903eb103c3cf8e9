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
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/notifier"
	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/database"
	"github.com/blnkfinance/notifier/internal/notification"
)

// CLI wraps the root cobra command.
type CLI struct {
	cmd *cobra.Command
}

// notifierInstance is filled in by preRun before any subcommand runs.
type notifierInstance struct {
	notifier *notifier.Notifier
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the Notifier shared by every command.
func preRun(app *notifierInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			log.Fatal("error loading config ", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		n, err := setupNotifier(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.notifier = n
		app.cnf = cnf
		return nil
	}
}

func setupNotifier(cfg *config.Configuration) (*notifier.Notifier, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	n, err := notifier.NewNotifier(db)
	if err != nil {
		return nil, fmt.Errorf("error creating notifier: %v", err)
	}
	return n, nil
}

func NewCLI() *CLI {
	var configFile string
	app := &notifierInstance{}

	rootCmd := &cobra.Command{
		Use:   "notifier",
		Short: "Bulk SMS notifier for attendance and salary sheets",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./notifier.json", "Configuration file for the notifier")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.notifier != nil {
			_ = app.notifier.Close()
		}
	}

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(sendCommands(app))
	rootCmd.AddCommand(configCommands(app))

	return &CLI{cmd: rootCmd}
}

func (c CLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
