// Package selection keeps the highlighted process pinned to a process
// identity rather than a row index.
package selection

import (
	"github.com/srodi/itop/pkg/types"
)

// State is the highlighted process, or none.
type State struct {
	id    types.ProcessIdentity
	valid bool
}

// None is the empty selection.
var None = State{}

// Of selects id.
func Of(id types.ProcessIdentity) State {
	return State{id: id, valid: true}
}

// Identity returns the selected identity and whether there is one.
func (s State) Identity() (types.ProcessIdentity, bool) {
	return s.id, s.valid
}

// IsNone reports whether nothing is selected.
func (s State) IsNone() bool { return !s.valid }

func (s State) String() string {
	if !s.valid {
		return "none"
	}
	return s.id.String()
}

// IndexOf returns the row holding the selected identity, or -1.
func IndexOf(rows []types.ProcessRecord, s State) int {
	if !s.valid {
		return -1
	}
	for i := range rows {
		if rows[i].Identity == s.id {
			return i
		}
	}
	return -1
}

// Migrate carries the selection from the previously rendered list to the
// current one. A selection that is still present stays on the same identity
// whatever its new row. A selection whose process is gone moves to the row it
// used to occupy, clamped to the end of the list, or to none when the list is
// empty. It reports whether the selection moved to a different process.
func Migrate(prev, cur []types.ProcessRecord, s State) (State, bool) {
	if !s.valid {
		return s, false
	}
	if IndexOf(cur, s) >= 0 {
		return s, false
	}

	p := IndexOf(prev, s)
	if p < 0 || len(cur) == 0 {
		return None, true
	}
	if p > len(cur)-1 {
		p = len(cur) - 1
	}
	return Of(cur[p].Identity), true
}
