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

// Package tabutil renders job status reports as console tables
package tabutil

import (
	"fmt"

	"github.com/stevedomin/termtable"
)

// A Table renders rows of job attributes in a column-aligned presentation
type Table interface {
	// AddHeaders sets the column headers of the table
	AddHeaders(headers ...string)
	// AddRow appends a line to the table, formatting each item with fmt.Sprint
	AddRow(items ...interface{})
	// Render returns the string representation of the table
	Render() string
}

// NewTable creates an empty Table with separators between columns
func NewTable() Table {
	return &statusTable{table: termtable.NewTable(nil, &termtable.TableOptions{
		Padding:      1,
		UseSeparator: true,
	})}
}

type statusTable struct {
	table *termtable.Table
}

func (t *statusTable) AddHeaders(headers ...string) {
	t.table.SetHeader(headers)
}

func (t *statusTable) AddRow(items ...interface{}) {
	row := make([]string, len(items))
	for i, item := range items {
		// Colored cells arrive as pre-rendered strings, everything else
		// goes through fmt.Sprint
		row[i] = fmt.Sprint(item)
	}
	t.table.AddRow(row)
}

func (t *statusTable) Render() string {
	return t.table.Render()
}
