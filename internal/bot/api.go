package bot

import (
	"errors"
	"strings"

	"flip/internal/domain"
)

// Level selects how hard a bot plays.
type Level int

const (
	LevelEasy Level = iota
	LevelSmart
	// LevelScript runs a user supplied Lua strategy.
	LevelScript
)

func (l Level) String() string {
	switch l {
	case LevelEasy:
		return "easy"
	case LevelScript:
		return "script"
	}
	return "smart"
}

// ParseLevel accepts the names produced by String. Unknown names give LevelSmart.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return LevelEasy
	case "script", "lua":
		return LevelScript
	}
	return LevelSmart
}

// ErrNoMove is returned when a brain cannot find any command to send.
var ErrNoMove = errors.New("no move available")

// Brain is the interface that all bot strategies must implement. Decide sees
// exactly what a human in the same seat would see. ok is false when the bot
// has nothing to do at this point.
type Brain interface {
	Decide(view domain.View) (env domain.Envelope, ok bool, err error)
}
