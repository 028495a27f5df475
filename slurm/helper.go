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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trainsub/trainsub/helper/sshutil"
)

type noJobFound struct {
	msg string
}

func (jid *noJobFound) Error() string {
	return jid.msg
}

// IsNoJobFoundError checks if the given error is an error due to no job found
// in the Slurm queue
func IsNoJobFoundError(err error) bool {
	_, ok := errors.Cause(err).(*noJobFound)
	return ok
}

// JobInfo is the short job description returned by squeue
type JobInfo struct {
	ID      string
	Name    string
	State   string
	RunTime string
	Reason  string
}

// parseJobIDFromBatchOutput parses the sbatch output ("Submitted batch job
// <id>") and returns the allocated job ID
func parseJobIDFromBatchOutput(out string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 4 || strings.Join(fields[:3], " ") != "Submitted batch job" {
		return "", errors.Errorf("unexpected sbatch output:%q", out)
	}
	return fields[3], nil
}

// GetJobInfo retrieves the job description with its id or name via squeue
func GetJobInfo(client sshutil.Client, jobID, jobName string) (*JobInfo, error) {
	var cmd string
	switch {
	case jobID != "":
		cmd = fmt.Sprintf("squeue --noheader -j %s -o \"%%i,%%j,%%T,%%M,%%r\"", jobID)
	case jobName != "":
		cmd = fmt.Sprintf("squeue --noheader -n %s -o \"%%i,%%j,%%T,%%M,%%r\"", jobName)
	default:
		return nil, errors.New("can't retrieve job information: a job id or a job name is required")
	}

	output, err := client.RunCommand(cmd)
	if err != nil {
		return nil, errors.Wrap(err, strings.TrimSpace(output))
	}
	out := strings.Trim(strings.TrimSpace(output), "\"")
	if out == "" {
		return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q, name:%q", jobID, jobName)}
	}
	fields := strings.Split(out, ",")
	if len(fields) != 5 {
		return nil, errors.Errorf("unexpected squeue output:%q", output)
	}
	return &JobInfo{ID: fields[0], Name: fields[1], State: fields[2], RunTime: fields[3], Reason: fields[4]}, nil
}

// GetJobDetails retrieves the detailed job attributes via scontrol as a
// key/value map (JobState, StdOut, StdErr, RunTime, Reason, ...)
func GetJobDetails(client sshutil.Client, jobID string) (map[string]string, error) {
	if jobID == "" {
		return nil, errors.New("can't retrieve job details: a job id is required")
	}
	output, err := client.RunCommand(fmt.Sprintf("scontrol show job %s", jobID))
	if err != nil {
		if strings.Contains(output, "Invalid job id specified") {
			return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q", jobID)}
		}
		return nil, errors.Wrap(err, strings.TrimSpace(output))
	}
	if strings.TrimSpace(output) == "" {
		return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q", jobID)}
	}

	info := make(map[string]string)
	for _, token := range strings.Fields(output) {
		if idx := strings.Index(token, "="); idx > 0 {
			info[token[:idx]] = token[idx+1:]
		}
	}
	return info, nil
}

// CancelJob asks the scheduler to cancel the job with the given id
func CancelJob(client sshutil.Client, jobID string) error {
	if jobID == "" {
		return errors.New("can't cancel a job: a job id is required")
	}
	output, err := client.RunCommand(fmt.Sprintf("scancel %s", jobID))
	return errors.Wrapf(err, "Failed to cancel job with id:%q: %s", jobID, strings.TrimSpace(output))
}
