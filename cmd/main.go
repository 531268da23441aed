/*
Copyright 2026 NexusBank Authors.

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

	"github.com/nexusbank/nexus"
	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/store"
)

// Nexus represents the CLI application, encapsulating the root Cobra command.
type Nexus struct {
	cmd *cobra.Command
}

// nexusInstance holds the service instance and its configuration, shared by
// the subcommands.
type nexusInstance struct {
	nexus *nexus.Nexus
	db    *store.PostgresStore
	cnf   *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service before running
// any command.
func preRun(app *nexusInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newNexus, db, err := setupNexus(cnf)
		if err != nil {
			log.Fatal(err)
		}

		app.nexus = newNexus
		app.db = db
		app.cnf = cnf

		return nil
	}
}

// setupNexus connects to the document store and builds the service instance.
func setupNexus(cfg *config.Configuration) (*nexus.Nexus, *store.PostgresStore, error) {
	db, err := store.Open(cfg.DataSource.Dns, cfg.Ledger.MaxTxnRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newNexus, err := nexus.NewNexus(db)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating nexus: %v", err)
	}
	return newNexus, db, nil
}

// NewCLI creates the command-line interface for the application.
func NewCLI() *Nexus {
	var configFile string
	b := &nexusInstance{}

	var rootCmd = &cobra.Command{
		Use:   "nexus",
		Short: "Banking ledger backend",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./nexus.json", "Configuration file for the nexus server")

	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Nexus{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during
// execution.
func (w Nexus) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
