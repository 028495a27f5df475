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
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/trainsub/trainsub/config"
	"github.com/trainsub/trainsub/helper/executil"
	"github.com/trainsub/trainsub/helper/sshutil"
	"github.com/trainsub/trainsub/log"
)

// Client runs commands on a node where the Slurm client tools (sbatch,
// squeue, scancel, scontrol) are installed and can upload files there
type Client interface {
	sshutil.Client
	CopyFile(source io.Reader, remotePath string, permissions string) error
}

// NewClient returns a client to the Slurm cluster described in the
// configuration. When no cluster url is configured the Slurm client tools
// are expected to be available locally.
func NewClient(ctx context.Context, cfg config.Configuration) (Client, error) {
	if cfg.Cluster.GetString("url") == "" {
		log.Debugln("No cluster url configured, using the local Slurm client tools")
		return &localClient{ctx: ctx}, nil
	}
	return getSSHClient(cfg)
}

func checkClusterConfig(cfg config.Configuration) error {
	if cfg.Cluster.GetString("url") == "" {
		return errors.New("missing mandatory cluster parameter url")
	}
	if cfg.Cluster.GetString("user_name") == "" {
		return errors.New("missing mandatory cluster parameter user_name")
	}
	if cfg.Cluster.GetString("private_key") == "" && cfg.Cluster.GetString("password") == "" {
		return errors.New("missing mandatory cluster parameter: private_key or password must be provided")
	}
	return nil
}

func getSSHClient(cfg config.Configuration) (*sshutil.SSHClient, error) {
	if err := checkClusterConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to build an SSH client to the cluster")
	}

	var authMethods []ssh.AuthMethod
	if pk := cfg.Cluster.GetString("private_key"); pk != "" {
		keyAuth, err := sshutil.ReadPrivateKey(pk)
		if err != nil {
			return nil, err
		}
		authMethods = append(authMethods, keyAuth)
	}
	if password := cfg.Cluster.GetString("password"); password != "" {
		authMethods = append(authMethods, ssh.Password(password))
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.Cluster.GetString("user_name"),
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	return &sshutil.SSHClient{
		Config: sshConfig,
		Host:   cfg.Cluster.GetString("url"),
		Port:   cfg.Cluster.GetIntOrDefault("port", config.DefaultSSHPort),
	}, nil
}

// localClient runs Slurm client commands on the local host
type localClient struct {
	ctx context.Context
}

func (c *localClient) RunCommand(cmd string) (string, error) {
	command := executil.Command(c.ctx, "bash", "-c", cmd)
	var b bytes.Buffer
	command.Stdout = &b
	command.Stderr = &b
	log.Debugf("[LocalSession] %q", cmd)
	err := command.Run()
	return b.String(), err
}

func (c *localClient) CopyFile(source io.Reader, remotePath string, permissions string) error {
	perm, err := strconv.ParseUint(permissions, 8, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid permissions %q for file %q", permissions, remotePath)
	}
	if err = os.MkdirAll(filepath.Dir(remotePath), 0755); err != nil {
		return errors.Wrapf(err, "couldn't create the directory for %q", remotePath)
	}
	data, err := ioutil.ReadAll(source)
	if err != nil {
		return errors.Wrapf(err, "couldn't read the content to copy to %q", remotePath)
	}
	if err = ioutil.WriteFile(remotePath, data, os.FileMode(perm)); err != nil {
		return errors.Wrapf(err, "couldn't write file %q", remotePath)
	}
	// WriteFile permissions are masked by the umask while scp applies them
	// verbatim, chmod to keep both client implementations consistent
	return errors.Wrapf(os.Chmod(remotePath, os.FileMode(perm)), "couldn't set permissions of file %q", remotePath)
}
