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

	"github.com/spf13/cobra"

	"github.com/trainsub/trainsub/slurm"
)

func init() {
	RootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the training job to the scheduler",
	Long: `Render the batch script of the training job, submit it with sbatch and
print the Slurm job id. The exit code reflects the submission only: use the
watch command to follow the job itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		configuration := getConfig()
		client, err := slurm.NewClient(ctx, configuration)
		if err != nil {
			errExit(err)
		}

		submission, err := slurm.SubmitJob(ctx, client,
			slurm.JobRequestFromConfig(configuration),
			slurm.TrainingParamsFromConfig(configuration),
			configuration.WorkingDirectory)
		if err != nil {
			errExit(err)
		}
		fmt.Println(submission.JobID)
		return nil
	},
}
