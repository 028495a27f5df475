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
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsub/trainsub/helper/sshutil"
	"github.com/trainsub/trainsub/log"
)

func TestSubmitJob(t *testing.T) {
	t.Parallel()
	workingDir, err := ioutil.TempDir("", "trainsub-submit")
	require.Nil(t, err)
	defer os.RemoveAll(workingDir)

	var uploadedScript, uploadedPath, ranCmd string
	client := &sshutil.MockSSHClient{
		MockCopyFile: func(source io.Reader, remotePath string, permissions string) error {
			content, err := ioutil.ReadAll(source)
			require.Nil(t, err)
			uploadedScript = string(content)
			uploadedPath = remotePath
			return nil
		},
		MockRunCommand: func(cmd string) (string, error) {
			ranCmd = cmd
			return "Submitted batch job 4567\n", nil
		},
	}

	submission, err := SubmitJob(context.Background(), client, defaultJobRequest(), defaultTrainingParams(), workingDir)
	require.Nil(t, err, "unexpected error submitting the job")
	require.Equal(t, "4567", submission.JobID)
	require.Equal(t, "deepspeech", submission.JobName)

	// The batch script is uploaded then handed to sbatch
	assert.Equal(t, "sbatch "+uploadedPath, ranCmd)
	assert.Contains(t, uploadedScript, "#SBATCH --gres=gpu:8")
	assert.Contains(t, uploadedScript, "#SBATCH --signal=USR1@600")
	assert.Contains(t, uploadedScript, "srun python main.py --num-workers 0")
	assert.Equal(t, uploadedScript, submission.Script)

	// A submission record is persisted for audit
	recordPath := filepath.Join(workingDir, "submissions", submission.ID+".json")
	_, err = os.Stat(recordPath)
	assert.NoError(t, err, "expected a submission record at %q", recordPath)
}

func TestSubmitJobWithMissingHyperparameter(t *testing.T) {
	t.Parallel()
	var schedulerContacted bool
	client := &sshutil.MockSSHClient{
		MockCopyFile: func(source io.Reader, remotePath string, permissions string) error {
			schedulerContacted = true
			return nil
		},
		MockRunCommand: func(cmd string) (string, error) {
			schedulerContacted = true
			return "", nil
		},
	}

	params := defaultTrainingParams()
	params.Checkpoint = ""
	_, err := SubmitJob(context.Background(), client, defaultJobRequest(), params, "work")
	require.Error(t, err, "expected an error submitting with a missing hyperparameter")
	require.False(t, schedulerContacted, "a malformed command must never reach the scheduler")
}

func TestSubmitJobWithInvalidResourceRequest(t *testing.T) {
	t.Parallel()
	var schedulerContacted bool
	client := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			schedulerContacted = true
			return "", nil
		},
	}

	job := defaultJobRequest()
	job.Nodes = 0
	_, err := SubmitJob(context.Background(), client, job, defaultTrainingParams(), "work")
	require.Error(t, err, "expected an error submitting with an invalid resource request")
	require.False(t, schedulerContacted, "a malformed descriptor must never reach the scheduler")
}

func TestSubmitJobWithSchedulerRejection(t *testing.T) {
	t.Parallel()
	workingDir, err := ioutil.TempDir("", "trainsub-submit")
	require.Nil(t, err)
	defer os.RemoveAll(workingDir)

	client := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			return "sbatch: error: invalid partition specified: unknown\n", errors.New("exit status 1")
		},
	}

	_, err = SubmitJob(context.Background(), client, defaultJobRequest(), defaultTrainingParams(), workingDir)
	require.Error(t, err, "expected an error when the scheduler rejects the submission")
	require.Contains(t, err.Error(), "invalid partition")
}

func TestSubmitJobWithCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			t.Fatal("the scheduler must not be contacted with a cancelled context")
			return "", nil
		},
	}
	_, err := SubmitJob(ctx, client, defaultJobRequest(), defaultTrainingParams(), "work")
	require.Error(t, err)
}

// Not parallel: captures the output of the package level logger
func TestSubmitJobLogsLaunchCommandForAudit(t *testing.T) {
	var logOut bytes.Buffer
	log.SetOutput(&logOut)
	defer log.SetOutput(os.Stderr)

	workingDir, err := ioutil.TempDir("", "trainsub-submit")
	require.Nil(t, err)
	defer os.RemoveAll(workingDir)

	client := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			return "Submitted batch job 4567", nil
		},
	}
	_, err = SubmitJob(context.Background(), client, defaultJobRequest(), defaultTrainingParams(), workingDir)
	require.Nil(t, err, "unexpected error submitting the job")

	assert.Contains(t, logOut.String(), "Resolved launch command: python main.py --num-workers 0")
	assert.Contains(t, logOut.String(), "requests 8 generic resource(s) per node")
}

func TestSubmitJobIsDeterministic(t *testing.T) {
	t.Parallel()
	workingDir, err := ioutil.TempDir("", "trainsub-submit")
	require.Nil(t, err)
	defer os.RemoveAll(workingDir)

	var scripts []string
	client := &sshutil.MockSSHClient{
		MockCopyFile: func(source io.Reader, remotePath string, permissions string) error {
			content, err := ioutil.ReadAll(source)
			require.Nil(t, err)
			scripts = append(scripts, string(content))
			return nil
		},
		MockRunCommand: func(cmd string) (string, error) {
			if strings.HasPrefix(cmd, "sbatch ") {
				return "Submitted batch job 4567", nil
			}
			return "", nil
		},
	}

	for i := 0; i < 3; i++ {
		_, err = SubmitJob(context.Background(), client, defaultJobRequest(), defaultTrainingParams(), workingDir)
		require.Nil(t, err)
	}
	require.Len(t, scripts, 3)
	assert.Equal(t, scripts[0], scripts[1])
	assert.Equal(t, scripts[1], scripts[2])
}
