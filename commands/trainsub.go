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

// Package commands implements the trainsub command line interface
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the root of the trainsub commands tree
var RootCmd = &cobra.Command{
	Use:   "trainsub",
	Short: "Submit the distributed speech training job to a Slurm cluster",
	Long: `trainsub renders the batch script of the distributed DeepSpeech training
job and submits it to a Slurm cluster, either through an SSH connection to a
Slurm client node or with the local Slurm client tools.
`,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			fmt.Print(err)
		}
	},
}

var noColor bool

func init() {
	RootCmd.PersistentFlags().BoolVar(&noColor, "no_color", false, "Disable coloring output")
}

func errExit(msg interface{}) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
