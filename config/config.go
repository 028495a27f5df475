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

// Package config defines configuration structures
package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DefaultWorkingDirectory is the default directory used for generated batch
// scripts and submission records
const DefaultWorkingDirectory = "work"

// DefaultSSHPort is the default port used to reach the Slurm client node
const DefaultSSHPort = 22

// DefaultMonitoringTimeInterval is the default polling interval used when
// watching a submitted job
const DefaultMonitoringTimeInterval = 5 * time.Second

// Default resource request, matching the original submission script.
const (
	DefaultJobName        = "deepspeech"
	DefaultOutputPath     = "/checkpoint/%u/jobs/%x-%j.out"
	DefaultErrorPath      = "/checkpoint/%u/jobs/%x-%j.err"
	DefaultSignalName     = "USR1"
	DefaultSignalLeadTime = 600
	DefaultOpenMode       = "append"
	DefaultPartition      = "learnfair"
	DefaultTimeLimit      = 4320
	DefaultNodes          = 1
	DefaultTasksPerNode   = 1
	DefaultGres           = "gpu:8"
	DefaultCPUsPerTask    = 80
	DefaultMemPerCPU      = 5120
)

// Default training hyperparameters, matching the original launch command.
const (
	DefaultProgram      = "python main.py"
	DefaultNumWorkers   = 0
	DefaultBatchSize    = 256
	DefaultNumEpochs    = 200
	DefaultWindowStride = 20
	DefaultOptimizer    = "adam"
	DefaultLearningRate = "3e-4"
	DefaultLogSteps     = 100
	DefaultCheckpoint   = "test"
)

// DefaultTrainDataURLs is the default set of LibriSpeech training subsets
var DefaultTrainDataURLs = []string{"train-clean-100", "train-clean-360", "train-other-500"}

// Configuration holds config information filled by Cobra and Viper (see commands package for more information)
type Configuration struct {
	WorkingDirectory       string
	MonitoringTimeInterval time.Duration
	Job                    Job
	Training               Training
	Cluster                DynamicMap
}

// Job holds the resource request handed to the scheduler at submission time
type Job struct {
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

// Training holds the hyperparameters substituted into the launch command
type Training struct {
	Program       string
	NumWorkers    int
	BatchSize     int
	TrainDataURLs []string
	NumEpochs     int
	WindowStride  int
	Optimizer     string
	LearningRate  string
	LogSteps      int
	Checkpoint    string
}

// DynamicMap parameters for the cluster access endpoint.
//
// It has methods to automatically cast data to the desired type.
type DynamicMap map[string]interface{}

// Get returns the raw value of a given configuration key
func (dm DynamicMap) Get(name string) interface{} {
	return dm[name]
}

// Set sets a value for a given configuration key
func (dm DynamicMap) Set(name string, value interface{}) {
	dm[name] = value
}

// GetString returns the value of the given key casted into a string.
// An empty string is returned if not found.
func (dm DynamicMap) GetString(name string) string {
	return cast.ToString(dm[name])
}

// GetStringOrDefault returns the value of the given key casted into a string.
// The given default value is returned if not found.
func (dm DynamicMap) GetStringOrDefault(name, defaultValue string) string {
	if res := dm.GetString(name); res != "" {
		return res
	}
	return defaultValue
}

// GetInt returns the value of the given key casted into an int.
// 0 is returned if not found.
func (dm DynamicMap) GetInt(name string) int {
	return cast.ToInt(dm[name])
}

// GetIntOrDefault returns the value of the given key casted into an int.
// The given default value is returned if not found or the value is 0.
func (dm DynamicMap) GetIntOrDefault(name string, defaultValue int) int {
	if res := dm.GetInt(name); res != 0 {
		return res
	}
	return defaultValue
}

// GetStringSlice returns the value of the given key casted into a slice of string.
// If the corresponding raw value is a string, it is split on comas.
// A nil or empty slice is returned if not found.
func (dm DynamicMap) GetStringSlice(name string) []string {
	val := dm[name]
	switch v := val.(type) {
	case string:
		return strings.Split(v, ",")
	default:
		return cast.ToStringSlice(val)
	}
}
