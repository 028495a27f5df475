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

package stringutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniqueTimestampedName(t *testing.T) {
	t.Parallel()
	first := UniqueTimestampedName("trainsub_", ".sbatch")
	second := UniqueTimestampedName("trainsub_", ".sbatch")
	require.True(t, strings.HasPrefix(first, "trainsub_"))
	require.True(t, strings.HasSuffix(first, ".sbatch"))
	require.NotEqual(t, first, second, "expected two generated names to differ")
}
