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

	"github.com/trainsub/trainsub/config"
)

// Optimizer names accepted by the training program
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// TrainingParams is the fixed table of hyperparameters substituted into the
// launch command. Flag names and value types follow the argument grammar of
// the external training program; LearningRate is kept as a string so that
// values like "3e-4" render byte-identically.
type TrainingParams struct {
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

// TrainingParamsFromConfig builds the hyperparameter table from the configuration
func TrainingParamsFromConfig(cfg config.Configuration) TrainingParams {
	return TrainingParams{
		Program:       cfg.Training.Program,
		NumWorkers:    cfg.Training.NumWorkers,
		BatchSize:     cfg.Training.BatchSize,
		TrainDataURLs: cfg.Training.TrainDataURLs,
		NumEpochs:     cfg.Training.NumEpochs,
		WindowStride:  cfg.Training.WindowStride,
		Optimizer:     cfg.Training.Optimizer,
		LearningRate:  cfg.Training.LearningRate,
		LogSteps:      cfg.Training.LogSteps,
		Checkpoint:    cfg.Training.Checkpoint,
	}
}

func (p *TrainingParams) checkTrainingParams() error {
	if p.Program == "" {
		return errors.New("missing mandatory training program")
	}
	if p.NumWorkers < 0 {
		return errors.Errorf("invalid number of workers %d: expected a non-negative integer", p.NumWorkers)
	}
	for _, check := range []struct {
		name  string
		value int
	}{
		{"batch size", p.BatchSize},
		{"number of epochs", p.NumEpochs},
		{"window stride", p.WindowStride},
		{"log steps", p.LogSteps},
	} {
		if check.value <= 0 {
			return errors.Errorf("invalid %s %d: expected a positive integer", check.name, check.value)
		}
	}
	if len(p.TrainDataURLs) == 0 {
		return errors.New("missing mandatory training data urls")
	}
	for _, url := range p.TrainDataURLs {
		if url == "" || strings.ContainsAny(url, " \t") {
			return errors.Errorf("invalid training data url %q", url)
		}
	}
	if p.Optimizer != OptimizerSGD && p.Optimizer != OptimizerAdam {
		return errors.Errorf("invalid optimizer %q: expected %q or %q", p.Optimizer, OptimizerSGD, OptimizerAdam)
	}
	if p.LearningRate == "" || strings.ContainsAny(p.LearningRate, " \t") {
		return errors.Errorf("invalid learning rate %q", p.LearningRate)
	}
	if p.Checkpoint == "" {
		return errors.New("missing mandatory checkpoint tag")
	}
	return nil
}

// BuildTrainingCommand substitutes the hyperparameter table into the launch
// command template. A missing or malformed value is a fatal error: the
// malformed command must never reach the scheduler.
func BuildTrainingCommand(p TrainingParams) (string, error) {
	if err := p.checkTrainingParams(); err != nil {
		return "", errors.Wrap(err, "failed to build the training launch command")
	}
	var b strings.Builder
	b.WriteString(p.Program)
	fmt.Fprintf(&b, " --num-workers %d", p.NumWorkers)
	fmt.Fprintf(&b, " --batch-size %d", p.BatchSize)
	fmt.Fprintf(&b, " --train-data-urls %s", strings.Join(p.TrainDataURLs, " "))
	fmt.Fprintf(&b, " --num-epochs %d", p.NumEpochs)
	fmt.Fprintf(&b, " --window-stride %d", p.WindowStride)
	fmt.Fprintf(&b, " --optimizer %s", p.Optimizer)
	fmt.Fprintf(&b, " --learning-rate %s", p.LearningRate)
	fmt.Fprintf(&b, " --log-steps %d", p.LogSteps)
	fmt.Fprintf(&b, " --checkpoint %s", p.Checkpoint)
	return b.String(), nil
}
