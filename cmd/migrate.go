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
	"database/sql"
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/notifier"
	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/database"
)

const schema = "notifier"

func migrateCommands(_ *notifierInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "run notifier database migrations",
	}

	cmd.AddCommand(migrateDirectionCommand("up", migrate.Up))
	cmd.AddCommand(migrateDirectionCommand("down", migrate.Down))

	return cmd
}

func migrateDirectionCommand(use string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "migrate " + use,
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Printf("Error fetching config: %v", err)
				return
			}

			db, err := database.ConnectDB(cnf.DataSource.Dns)
			if err != nil {
				log.Printf("Error connecting to database: %v", err)
				return
			}
			defer db.Close()

			n, err := runMigrations(db, direction)
			if err != nil {
				log.Printf("Error migrating %s: %v", use, err)
				return
			}
			fmt.Printf("Applied %d migrations (%s)!\n", n, use)
		},
	}
}

// runMigrations keeps the migration bookkeeping table inside the notifier schema.
func runMigrations(db *sql.DB, direction migrate.MigrationDirection) (int, error) {
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + schema); err != nil {
		return 0, err
	}
	migrate.SetSchema(schema)

	migrations := migrate.EmbedFileSystemMigrationSource{
		FileSystem: notifier.SQLFiles,
		Root:       "sql",
	}
	return migrate.Exec(db, "postgres", migrations, direction)
}
