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
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trainsub/trainsub/log"
)

const bashTail = `
if [ -f %s ]; then
    tail -n +%d %s
fi

`

// Job states for which monitoring keeps on. Other states (COMPLETED, FAILED,
// CANCELLED, TIMEOUT, ...) are terminal.
var activeJobStates = map[string]struct{}{
	"RUNNING":     {},
	"PENDING":     {},
	"COMPLETING":  {},
	"CONFIGURING": {},
	"SIGNALING":   {},
	"RESIZING":    {},
}

// IsTerminalState checks if the given job state is terminal for the scheduler
func IsTerminalState(state string) bool {
	_, active := activeJobStates[state]
	return !active
}

// Watcher polls a submitted job until it reaches a terminal state, copying
// new content of its stdout/stderr files to out between polls
type Watcher struct {
	client   Client
	interval time.Duration
	out      io.Writer

	mu          sync.Mutex
	fileIndexes map[string]int
}

// NewWatcher creates a Watcher polling at the given time interval
func NewWatcher(client Client, interval time.Duration, out io.Writer) *Watcher {
	return &Watcher{
		client:      client,
		interval:    interval,
		out:         out,
		fileIndexes: make(map[string]int),
	}
}

// WatchJob monitors the job until it terminates or the context is cancelled.
// It returns the terminal job state, and an error if that state is not
// COMPLETED.
func (w *Watcher) WatchJob(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	var previousState string
	for {
		select {
		case <-ctx.Done():
			log.Debugf("Watch has been cancelled for job %q", jobID)
			return previousState, ctx.Err()
		case <-ticker.C:
			info, err := GetJobDetails(w.client, jobID)
			if err != nil {
				if IsNoJobFoundError(err) {
					// Job purged from the scheduler accounting before we
					// observed a terminal state
					return "UNKNOWN", errors.Wrapf(err, "job with id:%q is no longer known to the scheduler", jobID)
				}
				return previousState, err
			}

			state := info["JobState"]
			if state != previousState {
				if reason, ok := info["Reason"]; ok && reason != "None" {
					log.Printf("Job with id:%q state:%s reason:%s", jobID, state, reason)
				} else {
					log.Printf("Job with id:%q state:%s", jobID, state)
				}
				previousState = state
			}

			w.tailJobLogs(info)

			if IsTerminalState(state) {
				if state != "COMPLETED" {
					return state, errors.Errorf("job with id:%q finished unsuccessfully with state:%q", jobID, state)
				}
				return state, nil
			}
		}
	}
}

// tailJobLogs copies the new content of the job stdout/stderr files to the
// watcher output. Both files are tailed concurrently, unless the job merges
// them into a single file.
func (w *Watcher) tailJobLogs(info map[string]string) {
	stdOut, existStdOut := info["StdOut"]
	stdErr, existStdErr := info["StdErr"]

	var g errgroup.Group
	if existStdOut {
		g.Go(func() error {
			return w.tailFile(stdOut)
		})
	}
	if existStdErr && stdErr != stdOut {
		g.Go(func() error {
			return w.tailFile(stdErr)
		})
	}
	if err := g.Wait(); err != nil {
		log.Debugf("Failed to tail job log files: %v", err)
	}
}

func (w *Watcher) tailFile(filePath string) error {
	w.mu.Lock()
	lastIndex := w.fileIndexes[filePath]
	w.mu.Unlock()

	output, err := w.client.RunCommand(fmt.Sprintf(bashTail, filePath, lastIndex+1, filePath))
	if err != nil {
		return errors.Wrapf(err, "failed to read log file %q", filePath)
	}
	if output == "" {
		return nil
	}

	// Tails run concurrently but the output writer may not be safe for
	// concurrent use, so writes are serialized under the same mutex as the
	// cursors
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err = io.WriteString(w.out, output); err != nil {
		return errors.Wrapf(err, "failed to copy log file %q content", filePath)
	}
	w.fileIndexes[filePath] = lastIndex + strings.Count(output, "\n")
	return nil
}
