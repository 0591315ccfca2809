package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/srodi/itop/pkg/engine"
	"github.com/srodi/itop/pkg/selection"
	"github.com/srodi/itop/pkg/types"
)

// KeyHelp is shown on the status line when there is nothing else to say.
const KeyHelp = "j/k move  enter select  esc clear  c/m/p/n sort  r reverse  space refresh  q quit"

func nav(m selection.Move, page int) engine.Command {
	return engine.Command{Kind: engine.CmdNavigate, Nav: selection.Nav{Move: m, Page: page}}
}

func sortBy(col types.SortColumn) engine.Command {
	return engine.Command{Kind: engine.CmdSortBy, Column: col}
}

// commandFor maps a key to an engine command. hasSelection tells Enter
// whether there is already a highlighted row; page is the visible table height.
func commandFor(ev *tcell.EventKey, hasSelection bool, page int) (engine.Command, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return engine.Command{Kind: engine.CmdQuit}, true
	case tcell.KeyUp:
		return nav(selection.MoveUp, page), true
	case tcell.KeyDown:
		return nav(selection.MoveDown, page), true
	case tcell.KeyPgUp:
		return nav(selection.MovePageUp, page), true
	case tcell.KeyPgDn:
		return nav(selection.MovePageDown, page), true
	case tcell.KeyHome:
		return nav(selection.MoveHome, page), true
	case tcell.KeyEnd:
		return nav(selection.MoveEnd, page), true
	case tcell.KeyEscape:
		return nav(selection.MoveClear, page), true
	case tcell.KeyEnter:
		if hasSelection {
			return engine.Command{}, false
		}
		return nav(selection.MoveHome, page), true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return engine.Command{Kind: engine.CmdQuit}, true
		case 'k':
			return nav(selection.MoveUp, page), true
		case 'j':
			return nav(selection.MoveDown, page), true
		case 'g':
			return nav(selection.MoveHome, page), true
		case 'G':
			return nav(selection.MoveEnd, page), true
		case 'c':
			return sortBy(types.SortByCPU), true
		case 'm':
			return sortBy(types.SortByMemory), true
		case 'p':
			return sortBy(types.SortByPID), true
		case 'n':
			return sortBy(types.SortByName), true
		case 'r':
			return engine.Command{Kind: engine.CmdReverse}, true
		case ' ':
			return engine.Command{Kind: engine.CmdRefresh}, true
		}
	}
	return engine.Command{}, false
}
