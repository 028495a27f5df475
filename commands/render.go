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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trainsub/trainsub/slurm"
)

func init() {
	RootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the batch script without submitting it",
	Long: `Render the batch script of the training job on stdout without contacting
the scheduler. The output is stable across invocations for a given
configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		job := slurm.JobRequestFromConfig(configuration)
		if err := job.Check(); err != nil {
			errExit(err)
		}
		command, err := slurm.BuildTrainingCommand(slurm.TrainingParamsFromConfig(configuration))
		if err != nil {
			errExit(err)
		}
		fmt.Print(slurm.RenderBatchScript(job, command))
		return nil
	},
}
