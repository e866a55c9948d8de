package watcher

import "time"

// EventKind classifies a filesystem change
type EventKind int

// Event kinds
const (
	Created EventKind = iota
	Modified
	Deleted
	Moved
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	}
	return "unknown"
}

// Event is one observed filesystem change under the watched root
type Event struct {
	// Path is the absolute path of the changed entry
	Path string
	// Kind is the change classification
	Kind EventKind
	// IsDir is true when the entry was a directory at event time;
	// always false for removals, whose entry can no longer be inspected
	IsDir bool
	// Time is when the event was observed
	Time time.Time
}
