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
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/trainsub/trainsub/helper/stringutil"
	"github.com/trainsub/trainsub/log"
)

// Submission is the record of a successful job submission
type Submission struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	JobName     string    `json:"job_name"`
	Script      string    `json:"script"`
	Command     string    `json:"command"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitJob renders the batch script for the given resource request and
// hyperparameters, uploads it to the cluster and submits it with sbatch.
//
// The request and the hyperparameters are validated first: nothing reaches
// the scheduler if the descriptor or the launch command is malformed. On
// success the allocated job ID is returned in the submission record and the
// record is persisted under workingDir for audit.
func SubmitJob(ctx context.Context, client Client, job JobRequest, params TrainingParams, workingDir string) (*Submission, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := job.Check(); err != nil {
		return nil, err
	}
	command, err := BuildTrainingCommand(params)
	if err != nil {
		return nil, err
	}
	script := RenderBatchScript(job, command)

	log.Printf("Submitting %s, %s memory per cpu, %d minute(s) time limit",
		job.String(), humanize.IBytes(uint64(job.MemPerCPU)*humanize.MiByte), job.TimeLimit)
	if gres := job.GresCount(); gres > 0 {
		log.Printf("Job %q requests %d generic resource(s) per node", job.Name, gres)
	}
	log.Printf("Resolved launch command: %s", command)

	scriptPath := path.Join(workingDir, stringutil.UniqueTimestampedName("trainsub_", ".sbatch"))
	if err = client.CopyFile(strings.NewReader(script), scriptPath, "0775"); err != nil {
		return nil, errors.Wrapf(err, "failed to copy the batch script to %q", scriptPath)
	}

	output, err := client.RunCommand(fmt.Sprintf("sbatch %s", scriptPath))
	if err != nil {
		return nil, errors.Wrapf(err, "the scheduler rejected the submission: %s", strings.TrimSpace(output))
	}
	jobID, err := parseJobIDFromBatchOutput(strings.Trim(output, "\n"))
	if err != nil {
		return nil, err
	}
	log.Printf("Submitted batch job with id:%q", jobID)

	submission := &Submission{
		ID:          fmt.Sprint(uuid.NewV4()),
		JobID:       jobID,
		JobName:     job.Name,
		Script:      script,
		Command:     command,
		SubmittedAt: time.Now().UTC(),
	}
	if err = writeSubmissionRecord(workingDir, submission); err != nil {
		// The job is already handed to the scheduler, losing the audit
		// record must not fail the submission
		log.Printf("Failed to write the submission record for job %q: %v", jobID, err)
	}
	return submission, nil
}

func writeSubmissionRecord(workingDir string, submission *Submission) error {
	recordsDir := filepath.Join(workingDir, "submissions")
	if err := os.MkdirAll(recordsDir, 0755); err != nil {
		return errors.Wrapf(err, "couldn't create the submissions directory %q", recordsDir)
	}
	data, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return errors.Wrap(err, "couldn't marshal the submission record")
	}
	recordPath := filepath.Join(recordsDir, submission.ID+".json")
	log.Debugf("Writing submission record to %q", recordPath)
	return errors.Wrapf(ioutil.WriteFile(recordPath, data, 0644), "couldn't write the submission record %q", recordPath)
}
