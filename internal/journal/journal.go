// Package journal provides the bounded, append-only decision logs the
// engine writes every firing decision to. One journal exists per rule
// layer (macro, micro); both are plain values owned by whoever owns the
// world, passed by reference - never package-level state.
package journal

// DefaultCapacity bounds a journal when the caller does not configure
// one. Capacity is a tuning constant, not semantics.
const DefaultCapacity = 256

// Entry records one firing decision with enough detail to reconstruct
// "why": the live condition values that made the rule match, the action
// taken, and whether the resulting switch was deferred. Entries are
// immutable once appended.
type Entry struct {
	Tick       int64  `json:"tick"`
	GameTime   string `json:"game_time"`
	RunnerID   string `json:"runner_id"`
	RunnerName string `json:"runner_name"`
	Layer      string `json:"layer"`
	NodeID     string `json:"node_id,omitempty"`
	RuleIndex  int    `json:"rule_index"`
	RuleLabel  string `json:"rule_label,omitempty"`

	// Snapshot is the rendered live values that made the rule match,
	// not a restatement of the rule's static text.
	Snapshot string `json:"snapshot"`

	ActionDetail string `json:"action"`
	Deferred     bool   `json:"deferred"`
}

// Journal is a bounded ring of entries. Oldest entries are silently
// evicted once capacity is reached. Not safe for concurrent use; the
// engine is single-threaded by construction.
type Journal struct {
	entries    []Entry
	start      int
	count      int
	generation int64
}

// New creates a journal holding at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{entries: make([]Entry, capacity)}
}

// Append records an entry. O(1), always succeeds, bumps the generation
// counter.
func (j *Journal) Append(e Entry) {
	idx := (j.start + j.count) % len(j.entries)
	j.entries[idx] = e
	if j.count < len(j.entries) {
		j.count++
	} else {
		j.start = (j.start + 1) % len(j.entries)
	}
	j.generation++
}

// Generation returns a counter bumped on every append. Observers compare
// it against a remembered value for a cheap "did anything change" check.
func (j *Journal) Generation() int64 { return j.generation }

// Len returns the number of retained entries.
func (j *Journal) Len() int { return j.count }

// All returns retained entries most-recent-first.
func (j *Journal) All() []Entry {
	out := make([]Entry, 0, j.count)
	for i := j.count - 1; i >= 0; i-- {
		out = append(out, j.entries[(j.start+i)%len(j.entries)])
	}
	return out
}

// ForRunner returns the most-recent-first entries for one runner: an
// order-preserving subsequence of All.
func (j *Journal) ForRunner(id string) []Entry {
	return j.filter(func(e Entry) bool { return e.RunnerID == id })
}

// ForNode returns the most-recent-first entries recorded at one node.
func (j *Journal) ForNode(id string) []Entry {
	return j.filter(func(e Entry) bool { return e.NodeID == id })
}

func (j *Journal) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for i := j.count - 1; i >= 0; i-- {
		e := j.entries[(j.start+i)%len(j.entries)]
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent entry, if any.
func (j *Journal) Last() (Entry, bool) {
	if j.count == 0 {
		return Entry{}, false
	}
	return j.entries[(j.start+j.count-1)%len(j.entries)], true
}
