// Copyright 2019 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
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

package sshutil

import "io"

// MockSSHClient mocks the connection to a Slurm client node so that tests
// can script the output of the Slurm client tools (sbatch, squeue, scontrol,
// scancel) and observe uploaded batch scripts without a cluster.
//
// A nil hook behaves as a successful no-op.
type MockSSHClient struct {
	MockRunCommand func(string) (string, error)
	MockCopyFile   func(source io.Reader, remotePath string, permissions string) error
}

// RunCommand delegates to MockRunCommand
func (m *MockSSHClient) RunCommand(cmd string) (string, error) {
	if m.MockRunCommand != nil {
		return m.MockRunCommand(cmd)
	}
	return "", nil
}

// CopyFile delegates to MockCopyFile
func (m *MockSSHClient) CopyFile(source io.Reader, remotePath string, permissions string) error {
	if m.MockCopyFile != nil {
		return m.MockCopyFile(source, remotePath, permissions)
	}
	return nil
}
