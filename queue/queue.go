// Package queue holds the session's playback queue. The head of the
// queue is the now-playing track whenever a player is active.
package queue

import "yttui/search"

// Queue is an ordered list of pending tracks with a selection cursor.
// It is only ever mutated from the session loop.
type Queue struct {
	tracks []search.Result

	// SelectedIndex is the cursor inside the queue panel. It stays in
	// [0, len) while the queue is non-empty and is 0 when empty.
	SelectedIndex int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends a track to the tail.
func (q *Queue) Push(track search.Result) {
	q.tracks = append(q.tracks, track)
}

// PopFront removes and returns the head. The cursor shifts down so it
// keeps pointing at the same logical track.
func (q *Queue) PopFront() (search.Result, bool) {
	if len(q.tracks) == 0 {
		return search.Result{}, false
	}
	if q.SelectedIndex > 0 {
		q.SelectedIndex--
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return head, true
}

// Remove deletes the track at index. Out-of-range indices are a no-op.
// The cursor stays inside the shrunk queue.
func (q *Queue) Remove(index int) (search.Result, bool) {
	if index < 0 || index >= len(q.tracks) {
		return search.Result{}, false
	}
	if index < q.SelectedIndex {
		q.SelectedIndex--
	}
	removed := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	if q.SelectedIndex >= len(q.tracks) {
		q.SelectedIndex = len(q.tracks) - 1
	}
	if q.SelectedIndex < 0 {
		q.SelectedIndex = 0
	}
	return removed, true
}

// MoveToFront promotes the track at index to play next and resets the
// cursor to the head.
func (q *Queue) MoveToFront(index int) {
	if index <= 0 || index >= len(q.tracks) {
		return
	}
	track := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	q.tracks = append([]search.Result{track}, q.tracks...)
	q.SelectedIndex = 0
}

// Clear empties the queue and resets the cursor.
func (q *Queue) Clear() {
	q.tracks = nil
	q.SelectedIndex = 0
}

// Get returns the track at index.
func (q *Queue) Get(index int) (search.Result, bool) {
	if index < 0 || index >= len(q.tracks) {
		return search.Result{}, false
	}
	return q.tracks[index], true
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Empty reports whether the queue has no tracks.
func (q *Queue) Empty() bool {
	return len(q.tracks) == 0
}

// Tracks returns a copy of the queued tracks in order.
func (q *Queue) Tracks() []search.Result {
	out := make([]search.Result, len(q.tracks))
	copy(out, q.tracks)
	return out
}
