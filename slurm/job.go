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

// Package slurm builds the resource request and launch command of the
// distributed training job and submits them to a Slurm cluster.
package slurm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trainsub/trainsub/config"
)

// Log file open modes accepted by sbatch --open-mode
const (
	OpenModeAppend   = "append"
	OpenModeTruncate = "truncate"
)

// gresRegexp matches a Slurm generic resource request as "name[:type]:count"
var gresRegexp = regexp.MustCompile(`^([a-z]+)(:[A-Za-z0-9_.-]+)?:([0-9]+)$`)

// JobRequest is the static resource request handed to the scheduler.
//
// Output and Error may embed the Slurm filename patterns %u (user), %x (job
// name) and %j (job ID); those are resolved by the scheduler at allocation
// time, never by this program.
type JobRequest struct {
	Name           string
	Output         string
	Error          string
	SignalName     string
	SignalLeadTime int
	OpenMode       string
	Partition      string
	TimeLimit      int
	Nodes          int
	TasksPerNode   int
	CPUsPerTask    int
	Gres           string
	MemPerCPU      int
}

// JobRequestFromConfig builds the job request from the configuration
func JobRequestFromConfig(cfg config.Configuration) JobRequest {
	return JobRequest{
		Name:           cfg.Job.Name,
		Output:         cfg.Job.Output,
		Error:          cfg.Job.Error,
		SignalName:     cfg.Job.SignalName,
		SignalLeadTime: cfg.Job.SignalLeadTime,
		OpenMode:       cfg.Job.OpenMode,
		Partition:      cfg.Job.Partition,
		TimeLimit:      cfg.Job.TimeLimit,
		Nodes:          cfg.Job.Nodes,
		TasksPerNode:   cfg.Job.TasksPerNode,
		CPUsPerTask:    cfg.Job.CPUsPerTask,
		Gres:           cfg.Job.Gres,
		MemPerCPU:      cfg.Job.MemPerCPU,
	}
}

// Check validates the resource request before it reaches the scheduler
func (j *JobRequest) Check() error {
	if j.Name == "" {
		return errors.New("missing mandatory job name")
	}
	if j.OpenMode != OpenModeAppend && j.OpenMode != OpenModeTruncate {
		return errors.Errorf("invalid open mode %q for job %q: expected %q or %q", j.OpenMode, j.Name, OpenModeAppend, OpenModeTruncate)
	}
	if j.SignalName == "" {
		return errors.Errorf("missing mandatory warning signal name for job %q", j.Name)
	}
	for _, check := range []struct {
		name  string
		value int
	}{
		{"signal lead time", j.SignalLeadTime},
		{"time limit", j.TimeLimit},
		{"nodes", j.Nodes},
		{"tasks per node", j.TasksPerNode},
		{"cpus per task", j.CPUsPerTask},
		{"memory per cpu", j.MemPerCPU},
	} {
		if check.value <= 0 {
			return errors.Errorf("invalid %s %d for job %q: expected a positive integer", check.name, check.value, j.Name)
		}
	}
	if j.Gres != "" {
		m := gresRegexp.FindStringSubmatch(j.Gres)
		if m == nil {
			return errors.Errorf("invalid gres %q for job %q: expected \"name[:type]:count\"", j.Gres, j.Name)
		}
		if count, err := strconv.Atoi(m[3]); err != nil || count <= 0 {
			return errors.Errorf("invalid gres count in %q for job %q: expected a positive integer", j.Gres, j.Name)
		}
	}
	return nil
}

// SbatchArgs renders the resource request as sbatch long options.
//
// The result is deterministic: fields are always rendered in the same order
// so that repeated invocations with the same configuration produce the same
// descriptor.
func SbatchArgs(j JobRequest) []string {
	args := []string{
		fmt.Sprintf("--job-name=%s", j.Name),
		fmt.Sprintf("--output=%s", j.Output),
		fmt.Sprintf("--error=%s", j.Error),
		fmt.Sprintf("--signal=%s@%d", j.SignalName, j.SignalLeadTime),
		fmt.Sprintf("--open-mode=%s", j.OpenMode),
		fmt.Sprintf("--partition=%s", j.Partition),
		fmt.Sprintf("--time=%d", j.TimeLimit),
		fmt.Sprintf("--nodes=%d", j.Nodes),
		fmt.Sprintf("--ntasks-per-node=%d", j.TasksPerNode),
	}
	if j.Gres != "" {
		args = append(args, fmt.Sprintf("--gres=%s", j.Gres))
	}
	args = append(args,
		fmt.Sprintf("--cpus-per-task=%d", j.CPUsPerTask),
		fmt.Sprintf("--mem-per-cpu=%d", j.MemPerCPU),
	)
	return args
}

// GresCount returns the requested count of the generic resource, 0 if none
// is requested
func (j *JobRequest) GresCount() int {
	m := gresRegexp.FindStringSubmatch(j.Gres)
	if m == nil {
		return 0
	}
	count, err := strconv.Atoi(m[3])
	if err != nil {
		return 0
	}
	return count
}

// String returns a short human readable description of the resource request
func (j *JobRequest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "job %q on partition %q: %d node(s), %d task(s) per node, %d cpus per task", j.Name, j.Partition, j.Nodes, j.TasksPerNode, j.CPUsPerTask)
	if j.Gres != "" {
		fmt.Fprintf(&b, ", gres %s", j.Gres)
	}
	return b.String()
}
