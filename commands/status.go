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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trainsub/trainsub/helper/tabutil"
	"github.com/trainsub/trainsub/slurm"
)

func init() {
	RootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [<job id>]",
	Short: "Show the current state of a job",
	Long: `Show the current state of a job known to the scheduler. The job is looked
up by id, or by the configured job name when no id is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		colorize := !noColor

		client, err := slurm.NewClient(context.Background(), configuration)
		if err != nil {
			errExit(err)
		}

		var jobID, jobName string
		if len(args) == 1 {
			jobID = args[0]
		} else {
			jobName = configuration.Job.Name
		}
		info, err := slurm.GetJobInfo(client, jobID, jobName)
		if err != nil {
			errExit(err)
		}

		jobsTable := tabutil.NewTable()
		jobsTable.AddHeaders("Id", "Name", "State", "RunTime", "Reason")
		jobsTable.AddRow(info.ID, info.Name, getColoredJobState(colorize, info.State), info.RunTime, info.Reason)
		if colorize {
			defer color.Unset()
		}
		fmt.Println("Jobs:")
		fmt.Println(jobsTable.Render())
		return nil
	},
}

func getColoredJobState(colorize bool, state string) string {
	if !colorize {
		return state
	}
	switch {
	case state == "COMPLETED":
		return color.New(color.FgHiGreen, color.Bold).SprintFunc()(state)
	case !slurm.IsTerminalState(state):
		return color.New(color.FgHiYellow, color.Bold).SprintFunc()(state)
	case strings.Contains(state, "CANCELLED"):
		return color.New(color.FgHiWhite, color.Bold).SprintFunc()(state)
	default:
		return color.New(color.FgHiRed, color.Bold).SprintFunc()(state)
	}
}
