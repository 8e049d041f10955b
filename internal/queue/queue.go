// Package queue owns the ordered track list and its position cursor.
//
// A Queue is not internally synchronized; the player coordinator owns the
// single instance and serializes all access under its own lock.
package queue

import (
	"errors"

	"github.com/cadence-music/cadence/internal/structures"
)

// ErrInvalidIndex is returned when a caller passes an out-of-range index.
var ErrInvalidIndex = errors.New("queue: index out of range")

// unset marks the cursor when no track is current.
const unset = -1

// Queue is the ordered list of tracks plus the current-position cursor.
// Duplicate track IDs at different positions are allowed.
type Queue struct {
	items  []structures.Track
	cursor int
}

// New returns an empty queue with an unset cursor.
func New() *Queue {
	return &Queue{cursor: unset}
}

// Replace swaps the whole list and points the cursor at startIndex.
// An empty tracks slice clears the queue and unsets the cursor.
func (q *Queue) Replace(tracks []structures.Track, startIndex int) error {
	if len(tracks) == 0 {
		q.items = nil
		q.cursor = unset
		return nil
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		return ErrInvalidIndex
	}
	q.items = make([]structures.Track, len(tracks))
	copy(q.items, tracks)
	q.cursor = startIndex
	return nil
}

// Append inserts a track at the end. The cursor never moves; appending to an
// empty queue does not make the new track current.
func (q *Queue) Append(track structures.Track) {
	q.items = append(q.items, track)
}

// RemoveAt deletes the track at index. A removal before the cursor shifts the
// cursor down so it keeps pointing at the same track; a removal at the cursor
// leaves the cursor on whatever shifted into the slot. Emptying the queue
// unsets the cursor.
//
// Callers removing several indices at once (remove-by-id) must process them
// in descending order, or later removals will hit shifted positions.
func (q *Queue) RemoveAt(index int) error {
	if index < 0 || index >= len(q.items) {
		return ErrInvalidIndex
	}
	q.items = append(q.items[:index], q.items[index+1:]...)
	switch {
	case len(q.items) == 0:
		q.cursor = unset
	case index < q.cursor:
		q.cursor--
	case q.cursor >= len(q.items):
		q.cursor = len(q.items) - 1
	}
	return nil
}

// Advance moves the cursor forward. Returns false at the last index or when
// the cursor is unset.
func (q *Queue) Advance() bool {
	if !q.HasNext() {
		return false
	}
	q.cursor++
	return true
}

// Retreat moves the cursor back. Returns false at index 0 or when unset.
func (q *Queue) Retreat() bool {
	if !q.HasPrevious() {
		return false
	}
	q.cursor--
	return true
}

// HasNext reports whether a track follows the current one.
func (q *Queue) HasNext() bool {
	return q.cursor != unset && q.cursor+1 < len(q.items)
}

// HasPrevious reports whether a track precedes the current one.
func (q *Queue) HasPrevious() bool {
	return q.cursor > 0
}

// Current returns the track under the cursor, or nil.
func (q *Queue) Current() *structures.Track {
	if q.cursor == unset || q.cursor >= len(q.items) {
		return nil
	}
	t := q.items[q.cursor]
	return &t
}

// Index returns the cursor position, or -1 when unset.
func (q *Queue) Index() int {
	return q.cursor
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queued tracks in playback order.
func (q *Queue) Items() []structures.Track {
	items := make([]structures.Track, len(q.items))
	copy(items, q.items)
	return items
}

// Clear drops every track and unsets the cursor.
func (q *Queue) Clear() {
	q.items = nil
	q.cursor = unset
}
