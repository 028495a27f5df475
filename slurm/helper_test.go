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
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsub/trainsub/helper/sshutil"
)

func TestParseJobIDFromSbatchOut(t *testing.T) {
	t.Parallel()
	str := "Submitted batch job 4567"
	ret, err := parseJobIDFromBatchOutput(str)
	require.Nil(t, err, "unexpected error")
	require.Equal(t, "4567", ret, "unexpected JobID parsing")
}

func TestParseJobIDFromMalformedSbatchOut(t *testing.T) {
	t.Parallel()
	for _, str := range []string{"", "sbatch: error: invalid partition specified", "Submitted batch job"} {
		_, err := parseJobIDFromBatchOutput(str)
		require.Error(t, err, "expected an error parsing %q", str)
	}
}

func TestGetJobInfo(t *testing.T) {
	t.Parallel()
	type args struct {
		sshCli  sshutil.Client
		jobID   string
		jobName string
	}

	tests := []struct {
		name    string
		args    args
		want    *JobInfo
		wantErr bool
		err     error
	}{
		{"TestWithJobID", args{&sshutil.MockSSHClient{
			MockRunCommand: func(cmd string) (string, error) {
				return "6260,deepspeech,RUNNING,1:02,None", nil
			}}, "6260", ""}, &JobInfo{ID: "6260", Name: "deepspeech", State: "RUNNING", RunTime: "1:02", Reason: "None"}, false, nil},
		{"TestWithJobName", args{&sshutil.MockSSHClient{
			MockRunCommand: func(cmd string) (string, error) {
				return "6260,deepspeech,PENDING,0:00,Resources", nil
			}}, "", "deepspeech"}, &JobInfo{ID: "6260", Name: "deepspeech", State: "PENDING", RunTime: "0:00", Reason: "Resources"}, false, nil},
		{"TestWithoutParams", args{&sshutil.MockSSHClient{
			MockRunCommand: func(cmd string) (string, error) {
				return "", nil
			}}, "", ""}, nil, true, nil},
		{"TestWithMalformedOutput", args{&sshutil.MockSSHClient{
			MockRunCommand: func(cmd string) (string, error) {
				return "MALFORMED", nil
			}}, "6260", ""}, nil, true, nil},
		{"TestWithJobNotFound", args{&sshutil.MockSSHClient{
			MockRunCommand: func(cmd string) (string, error) {
				return "", nil
			}}, "6260", ""}, nil, true, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q, name:%q", "6260", "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := GetJobInfo(tt.args.sshCli, tt.args.jobID, tt.args.jobName)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetJobInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.err != nil && !reflect.DeepEqual(err, tt.err) {
				t.Errorf("GetJobInfo() error = %v, expected err:%v", err, tt.err)
			}
			if !reflect.DeepEqual(info, tt.want) {
				t.Fatalf("GetJobInfo() = %v, want %v", info, tt.want)
			}
		})
	}
}

func TestGetJobDetails(t *testing.T) {
	t.Parallel()
	testdataFile := filepath.Join("testdata", "scontrol_show_job_running.txt")
	testdataFileContent, err := ioutil.ReadFile(testdataFile)
	require.Nil(t, err, "unexpected error reading %q", testdataFile)

	s := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			return string(testdataFileContent), nil
		},
	}
	info, err := GetJobDetails(s, "6260")
	require.Nil(t, err, "unexpected error retrieving job details")
	assert.Equal(t, "6260", info["JobId"])
	assert.Equal(t, "deepspeech", info["JobName"])
	assert.Equal(t, "RUNNING", info["JobState"])
	assert.Equal(t, "None", info["Reason"])
	assert.Equal(t, "/checkpoint/jdoe/jobs/deepspeech-6260.out", info["StdOut"])
	assert.Equal(t, "/checkpoint/jdoe/jobs/deepspeech-6260.err", info["StdErr"])
}

func TestGetJobDetailsWithJobNotFound(t *testing.T) {
	t.Parallel()
	s := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			return "slurm_load_jobs error: Invalid job id specified", errors.New("exit status 1")
		},
	}
	_, err := GetJobDetails(s, "6260")
	require.Error(t, err)
	require.True(t, IsNoJobFoundError(err), "expected a no job found error, got %v", err)
}

func TestCancelJob(t *testing.T) {
	t.Parallel()
	var ranCmd string
	s := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			ranCmd = cmd
			return "", nil
		},
	}
	require.Nil(t, CancelJob(s, "6260"))
	require.Equal(t, "scancel 6260", ranCmd)
}

func TestCancelJobWithFailure(t *testing.T) {
	t.Parallel()
	s := &sshutil.MockSSHClient{
		MockRunCommand: func(cmd string) (string, error) {
			return "scancel: error: Kill job error", errors.New("exit status 1")
		},
	}
	require.Error(t, CancelJob(s, "6260"))
	require.Error(t, CancelJob(s, ""))
}

func TestIsNoJobFoundError(t *testing.T) {
	t.Parallel()
	err := &noJobFound{msg: "no information found"}
	assert.True(t, IsNoJobFoundError(err))
	assert.True(t, IsNoJobFoundError(errors.Wrap(err, "wrapped")))
	assert.False(t, IsNoJobFoundError(errors.New("another error")))
	assert.False(t, IsNoJobFoundError(nil))
}
