package selection

import "github.com/srodi/itop/pkg/types"

// Move is a navigation request from the user.
type Move int

const (
	MoveUp Move = iota
	MoveDown
	MovePageUp
	MovePageDown
	MoveHome
	MoveEnd
	MoveRow // jump to Nav.Row
	MoveClear
)

// Nav is one navigation input.
type Nav struct {
	Move Move
	Row  int // MoveRow only
	Page int // rows per page for MovePageUp/MovePageDown; <1 means 1
}

// Navigate applies n to s over the rows the user is looking at. Navigation
// overrides whatever was selected. Starting from no selection, any move other
// than MoveEnd or MoveRow lands on the first row.
func Navigate(rows []types.ProcessRecord, s State, n Nav) State {
	if n.Move == MoveClear || len(rows) == 0 {
		return None
	}
	last := len(rows) - 1
	page := n.Page
	if page < 1 {
		page = 1
	}

	idx := IndexOf(rows, s)
	var target int
	switch n.Move {
	case MoveRow:
		target = n.Row
	case MoveEnd:
		target = last
	case MoveHome:
		target = 0
	default:
		if idx < 0 {
			target = 0
			break
		}
		switch n.Move {
		case MoveUp:
			target = idx - 1
		case MoveDown:
			target = idx + 1
		case MovePageUp:
			target = idx - page
		case MovePageDown:
			target = idx + page
		}
	}

	if target < 0 {
		target = 0
	}
	if target > last {
		target = last
	}
	return Of(rows[target].Identity)
}
