// Copyright 2018 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trainsub/trainsub/log"
	"github.com/trainsub/trainsub/slurm"
)

func init() {
	RootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <job id>",
	Short: "Follow a job until it terminates",
	Long: `Poll a job until it reaches a terminal state, copying the new content of
its output and error files to stdout between polls. The exit code is zero
only when the job completes successfully.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		colorize := !noColor

		client, err := slurm.NewClient(context.Background(), configuration)
		if err != nil {
			errExit(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-signalCh
			log.Printf("Received signal %v, stopping the watch. The job keeps running.", sig)
			cancel()
		}()

		watcher := slurm.NewWatcher(client, configuration.MonitoringTimeInterval, os.Stdout)
		state, err := watcher.WatchJob(ctx, args[0])
		if err != nil {
			errExit(err)
		}
		if colorize {
			defer color.Unset()
		}
		fmt.Println("Final state:", getColoredJobState(colorize, state))
		return nil
	},
}
