package domain

import (
	"sort"
	"time"
)

// Manifest maps a document ID to the fingerprint it was last indexed at.
// An entry with fingerprint F means every chunk tagged with that source
// was derived from the content whose hash is F.
type Manifest map[string]string

// Clone returns an independent copy of the manifest.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for id, fp := range m {
		out[id] = fp
	}
	return out
}

// IDs returns the manifest keys in sorted order.
func (m Manifest) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ChangeKind classifies a document relative to the manifest.
type ChangeKind string

// Change kinds. Every document ID falls into exactly one.
const (
	ChangeNew       ChangeKind = "new"
	ChangeModified  ChangeKind = "modified"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeDeleted   ChangeKind = "deleted"

	// ChangeUnreadable marks a listed document whose content could not be
	// read. Its manifest entry is carried over unchanged.
	ChangeUnreadable ChangeKind = "unreadable"
)

// IndexPlan is the partition of document IDs produced by Classify, plus
// the listed documents that could not be read.
type IndexPlan struct {
	New        []string `json:"new"`
	Modified   []string `json:"modified"`
	Unchanged  []string `json:"unchanged"`
	Deleted    []string `json:"deleted"`
	Unreadable []string `json:"unreadable,omitempty"`
}

// Classify partitions the union of current and previous IDs.
// Each slice is sorted.
func Classify(current, previous Manifest) IndexPlan {
	var plan IndexPlan
	for _, id := range current.IDs() {
		prev, ok := previous[id]
		switch {
		case !ok:
			plan.New = append(plan.New, id)
		case prev != current[id]:
			plan.Modified = append(plan.Modified, id)
		default:
			plan.Unchanged = append(plan.Unchanged, id)
		}
	}
	for _, id := range previous.IDs() {
		if _, ok := current[id]; !ok {
			plan.Deleted = append(plan.Deleted, id)
		}
	}
	return plan
}

// HasChanges reports whether any document needs an index mutation.
func (p IndexPlan) HasChanges() bool {
	return len(p.New)+len(p.Modified)+len(p.Deleted) > 0
}

// Total returns the number of classified document IDs.
func (p IndexPlan) Total() int {
	return len(p.New) + len(p.Modified) + len(p.Unchanged) + len(p.Deleted) + len(p.Unreadable)
}

// KindOf returns the class of id, or false if the plan does not contain it.
func (p IndexPlan) KindOf(id string) (ChangeKind, bool) {
	for kind, ids := range map[ChangeKind][]string{
		ChangeNew:        p.New,
		ChangeModified:   p.Modified,
		ChangeUnchanged:  p.Unchanged,
		ChangeDeleted:    p.Deleted,
		ChangeUnreadable: p.Unreadable,
	} {
		for _, candidate := range ids {
			if candidate == id {
				return kind, true
			}
		}
	}
	return "", false
}

// IndexReport summarises one indexing run.
type IndexReport struct {
	Plan IndexPlan `json:"plan"`

	// NoOp is true when nothing changed and nothing was touched.
	NoOp bool `json:"no_op"`

	// ChunksDeleted counts chunks removed for deleted and modified documents.
	ChunksDeleted int `json:"chunks_deleted"`

	// ChunksWritten counts chunks upserted for new and modified documents.
	ChunksWritten int `json:"chunks_written"`

	// SkippedEmpty lists documents whose text was blank.
	SkippedEmpty []string `json:"skipped_empty,omitempty"`

	// Failed maps a document ID to the reason it was not processed.
	Failed map[string]string `json:"failed,omitempty"`

	// ManifestSaved is false when the final manifest write failed.
	ManifestSaved bool `json:"manifest_saved"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
