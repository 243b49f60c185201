package library

import "github.com/rs/zerolog"

// Level indicates the severity/type of an event.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// Event is a user-facing progress or error message.
type Event struct {
	Message string
	Level   Level
}

func (l Level) logLevel() zerolog.Level {
	switch l {
	case LevelVerbose:
		return zerolog.DebugLevel
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Library) emit(event Event) {
	l.log.WithLevel(event.Level.logLevel()).Msg(event.Message)
	if l.onEvent != nil {
		l.onEvent(event)
	}
}
