// Package ledger maintains the append-only mapping from upstream
// revisions to local mirror commits.
//
// The durable form of the ledger is the target repository history itself:
// every mirror commit embeds both upstream revision identifiers in its
// message, so the ledger is reconstructed from the commit log on every
// run and never cached separately.
package ledger

import (
	"fmt"
	"time"

	"github.com/danieljhkim/revsync/internal/gitx"
)

// Entry maps one upstream revision to the local commit that mirrors it.
type Entry struct {
	// UpstreamRevision is the generator repository revision.
	UpstreamRevision string

	// LocalCommit is the mirror commit in the target repository. Empty
	// for in-run entries whose merge was a no-op.
	LocalCommit string

	// Timestamp is when the entry was appended. Zero when the entry was
	// reconstructed from history.
	Timestamp time.Time
}

// Ledger is an append-only, ancestry-ordered sequence of entries. No
// upstream revision appears twice.
type Ledger struct {
	entries []Entry
	seen    map[string]bool
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

// Append adds an entry. Appending a revision already present is an error:
// replay visits each upstream revision exactly once.
func (l *Ledger) Append(e Entry) error {
	if e.UpstreamRevision == "" {
		return fmt.Errorf("ledger entry has no upstream revision")
	}
	if l.seen[e.UpstreamRevision] {
		return fmt.Errorf("upstream revision %s already in ledger", e.UpstreamRevision)
	}
	l.seen[e.UpstreamRevision] = true
	l.entries = append(l.entries, e)
	return nil
}

// Last returns the most recent entry.
func (l *Ledger) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Entries returns all entries, oldest first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// FromHistory reconstructs a ledger from target commits, newest first as
// returned by the log. Commits that are not mirror commits (hand-authored
// changes to the target) are ignored.
func FromHistory(commits []gitx.Commit) (*Ledger, error) {
	var entries []Entry
	for _, commit := range commits {
		smithyRev, _, ok := ParseMessage(commit.Message)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			UpstreamRevision: smithyRev,
			LocalCommit:      commit.ID,
		})
	}

	l := New()
	for i := len(entries) - 1; i >= 0; i-- {
		if err := l.Append(entries[i]); err != nil {
			return nil, fmt.Errorf("target history is not a valid ledger: %w", err)
		}
	}
	return l, nil
}
