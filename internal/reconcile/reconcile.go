// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package reconcile classifies the records of two export snapshots into
// added, removed, modified and unchanged, with field-level changes and
// line-level statistics per record. Every operation in the package is
// total: any two inputs produce a report, never an error.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/pexctl/pexctl/internal/export"
)

// Status classifies one record across two snapshots.
type Status string

const (
	StatusModified  Status = "modified"
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusUnchanged Status = "unchanged"
)

// statusRank is the presentation order. Ties keep snapshot order.
var statusRank = map[Status]int{
	StatusModified:  0,
	StatusAdded:     1,
	StatusRemoved:   2,
	StatusUnchanged: 3,
}

// RecordDiff is the classification of a single record id, with enough of
// both sides retained to derive line statistics.
type RecordDiff struct {
	ID         string
	Name       string
	Status     Status
	Changes    []FieldChange
	OldContent string
	NewContent string
}

// Summary counts the report by status. Total always equals the size of the
// id union of the two snapshots.
type Summary struct {
	Added     int
	Removed   int
	Modified  int
	Unchanged int
	Total     int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d modified, %d added, %d removed, %d unchanged (%d total)",
		s.Modified, s.Added, s.Removed, s.Unchanged, s.Total)
}

// Report is the full reconciliation of two snapshots.
type Report struct {
	Diffs   []*RecordDiff
	Summary Summary
}

// Reconcile classifies every record id present in either snapshot, exactly
// once. Iteration order is the old snapshot's record order followed by
// records that exist only in the new snapshot, in their order. The result
// is sorted modified, added, removed, unchanged, stable within a status.
func Reconcile(oldSnap, newSnap *export.Snapshot) *Report {
	if oldSnap == nil {
		oldSnap = &export.Snapshot{}
	}
	if newSnap == nil {
		newSnap = &export.Snapshot{}
	}

	oldByID := recordIndex(oldSnap.Prompts)
	newByID := recordIndex(newSnap.Prompts)

	var diffs []*RecordDiff
	seen := make(map[string]bool)

	for i := range oldSnap.Prompts {
		oldRec := &oldSnap.Prompts[i]
		if seen[oldRec.ID] {
			continue
		}
		seen[oldRec.ID] = true

		newRec, inNew := newByID[oldRec.ID]
		if !inNew {
			diffs = append(diffs, &RecordDiff{
				ID:         oldRec.ID,
				Name:       oldRec.Name,
				Status:     StatusRemoved,
				OldContent: oldRec.Content,
			})

			continue
		}

		d := &RecordDiff{
			ID:         oldRec.ID,
			Name:       newRec.Name,
			Status:     StatusUnchanged,
			Changes:    FieldDiff(oldRec, newRec),
			OldContent: oldRec.Content,
			NewContent: newRec.Content,
		}
		if len(d.Changes) > 0 {
			d.Status = StatusModified
		}

		diffs = append(diffs, d)
	}

	for i := range newSnap.Prompts {
		newRec := &newSnap.Prompts[i]
		if seen[newRec.ID] {
			continue
		}
		seen[newRec.ID] = true

		diffs = append(diffs, &RecordDiff{
			ID:         newRec.ID,
			Name:       newRec.Name,
			Status:     StatusAdded,
			NewContent: newRec.Content,
		})
	}

	sort.SliceStable(diffs, func(i, j int) bool {
		return statusRank[diffs[i].Status] < statusRank[diffs[j].Status]
	})

	summary := Summary{Total: len(diffs)}
	for _, d := range diffs {
		switch d.Status {
		case StatusAdded:
			summary.Added++
		case StatusRemoved:
			summary.Removed++
		case StatusModified:
			summary.Modified++
		case StatusUnchanged:
			summary.Unchanged++
		}
	}

	return &Report{Diffs: diffs, Summary: summary}
}

// recordIndex maps records by id. The first occurrence of a duplicated id
// wins, matching the iteration rule in Reconcile.
func recordIndex(records []export.Record) map[string]*export.Record {
	idx := make(map[string]*export.Record, len(records))
	for i := range records {
		if _, ok := idx[records[i].ID]; !ok {
			idx[records[i].ID] = &records[i]
		}
	}

	return idx
}
