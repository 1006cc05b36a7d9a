package domain

import "strings"

// Command is what a key press asks the game to do.
type Command uint8

const (
	CmdNone Command = iota
	CmdUp
	CmdRight
	CmdLeft
	CmdDown
	CmdPause
	CmdRestart
)

// Direction returns the direction a steering command selects.
func (c Command) Direction() (Direction, bool) {
	switch c {
	case CmdUp:
		return Up, true
	case CmdRight:
		return Right, true
	case CmdLeft:
		return Left, true
	case CmdDown:
		return Down, true
	}
	return 0, false
}

var keyCommands = map[string]Command{
	// KeyboardEvent.code / KeyboardEvent.key
	"arrowup":    CmdUp,
	"arrowright": CmdRight,
	"arrowleft":  CmdLeft,
	"arrowdown":  CmdDown,
	"keyw":       CmdUp,
	"keyd":       CmdRight,
	"keya":       CmdLeft,
	"keys":       CmdDown,
	"space":      CmdPause,
	"keyp":       CmdPause,
	"keyr":       CmdRestart,
	// short names, terminal runes
	"up":      CmdUp,
	"right":   CmdRight,
	"left":    CmdLeft,
	"down":    CmdDown,
	"w":       CmdUp,
	"d":       CmdRight,
	"a":       CmdLeft,
	"s":       CmdDown,
	"p":       CmdPause,
	"pause":   CmdPause,
	"r":       CmdRestart,
	"restart": CmdRestart,
}

// ParseKey maps a key name to a command. Unknown keys yield CmdNone.
func ParseKey(name string) Command {
	if name == " " {
		return CmdPause
	}
	return keyCommands[strings.ToLower(strings.TrimSpace(name))]
}
