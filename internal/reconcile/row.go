// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package reconcile

import "strings"

// Row is one report line shaped for the jsonapi output pipeline.
type Row struct {
	ID             string `jsonapi:"primary,record-diffs"`
	Name           string `jsonapi:"attr,name"`
	Status         string `jsonapi:"attr,status"`
	Fields         string `jsonapi:"attr,fields"`
	LinesAdded     int    `jsonapi:"attr,lines-added"`
	LinesRemoved   int    `jsonapi:"attr,lines-removed"`
	LinesUnchanged int    `jsonapi:"attr,lines-unchanged"`
	FieldsChanged  int    `jsonapi:"attr,fields-changed"`
}

// Rows flattens the report for rendering, attaching the per-record stats
// and a comma list of changed field names.
func (r *Report) Rows() []*Row {
	rows := make([]*Row, 0, len(r.Diffs))

	for _, d := range r.Diffs {
		stats := Stats(d)

		rows = append(rows, &Row{
			ID:             d.ID,
			Name:           d.Name,
			Status:         string(d.Status),
			Fields:         changedFieldNames(d.Changes),
			LinesAdded:     stats.LinesAdded,
			LinesRemoved:   stats.LinesRemoved,
			LinesUnchanged: stats.LinesUnchanged,
			FieldsChanged:  stats.FieldsChanged,
		})
	}

	return rows
}

func changedFieldNames(changes []FieldChange) string {
	if len(changes) == 0 {
		return ""
	}

	names := make([]string, 0, len(changes))
	for _, c := range changes {
		names = append(names, c.Field)
	}

	return strings.Join(names, ",")
}
