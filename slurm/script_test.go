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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderBatchScriptWithDefaults(t *testing.T) {
	t.Parallel()
	command, err := BuildTrainingCommand(defaultTrainingParams())
	require.Nil(t, err)

	expected := `#!/bin/bash
#SBATCH --job-name=deepspeech
#SBATCH --output=/checkpoint/%u/jobs/%x-%j.out
#SBATCH --error=/checkpoint/%u/jobs/%x-%j.err
#SBATCH --signal=USR1@600
#SBATCH --open-mode=append
#SBATCH --partition=learnfair
#SBATCH --time=4320
#SBATCH --nodes=1
#SBATCH --ntasks-per-node=1
#SBATCH --gres=gpu:8
#SBATCH --cpus-per-task=80
#SBATCH --mem-per-cpu=5120

srun python main.py --num-workers 0 --batch-size 256 --train-data-urls train-clean-100 train-clean-360 train-other-500 --num-epochs 200 --window-stride 20 --optimizer adam --learning-rate 3e-4 --log-steps 100 --checkpoint test
`
	require.Equal(t, expected, RenderBatchScript(defaultJobRequest(), command))
}

func TestRenderBatchScriptIsDeterministic(t *testing.T) {
	t.Parallel()
	job := defaultJobRequest()
	command, err := BuildTrainingCommand(defaultTrainingParams())
	require.Nil(t, err)

	first := RenderBatchScript(job, command)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, RenderBatchScript(job, command), "expected a stable script across repeated renderings")
	}
}
