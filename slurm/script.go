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

package slurm

import (
	"strings"
)

// RenderBatchScript renders the batch script submitted with sbatch: the
// resource request as #SBATCH directive lines followed by the launch command
// run under srun on the allocated resources.
//
// The rendering is deterministic for a given job request and command.
func RenderBatchScript(j JobRequest, command string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	for _, arg := range SbatchArgs(j) {
		b.WriteString("#SBATCH ")
		b.WriteString(arg)
		b.WriteString("\n")
	}
	b.WriteString("\nsrun ")
	b.WriteString(command)
	b.WriteString("\n")
	return b.String()
}
