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

package sshutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatePrivateKeyContent(t *testing.T) string {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.Nil(t, err, "unexpected error generating an RSA key")
	bArray := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY",
		Headers: nil,
		Bytes:   x509.MarshalPKCS1PrivateKey(priv)})
	return string(bArray)
}

func TestReadPrivateKeyFromContent(t *testing.T) {
	t.Parallel()
	content := generatePrivateKeyContent(t)
	_, err := ReadPrivateKey(content)
	assert.NoError(t, err, "Unexpected error reading a private key from its content")
}

func TestReadPrivateKeyFromPath(t *testing.T) {
	t.Parallel()
	content := generatePrivateKeyContent(t)
	dir, err := ioutil.TempDir("", "sshutil")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	keyPath := filepath.Join(dir, "id_rsa_test.pem")
	err = ioutil.WriteFile(keyPath, []byte(content), 0600)
	require.Nil(t, err)

	_, err = ReadPrivateKey(keyPath)
	assert.NoError(t, err, "Unexpected error reading a private key from a path")
}

func TestReadPrivateKeyWithBadContent(t *testing.T) {
	t.Parallel()
	_, err := ReadPrivateKey("not a pem block")
	assert.Error(t, err, "Expected an error reading a malformed private key")
}

func TestMockSSHClientDefaults(t *testing.T) {
	t.Parallel()
	s := &MockSSHClient{}
	out, err := s.RunCommand("squeue")
	require.Nil(t, err)
	require.Equal(t, "", out)
	require.Nil(t, s.CopyFile(nil, "/tmp/foo", "0755"))
}
