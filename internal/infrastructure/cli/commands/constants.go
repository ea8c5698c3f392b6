package commands

import (
	"context"

	"github.com/doeshing/datatalk/internal/app"
)

// ContainerFunc hands a command the wired dependency graph. It is called
// after flag parsing so --config takes effect.
type ContainerFunc func(ctx context.Context) (*app.Container, error)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable (history.enabled is false)"
	ErrQueryRequired            = "--query required"
	ErrInvalidRetainDays        = "--days must be > 0"
)

// Success messages
const (
	MsgNoHistoryRecorded = "No history recorded yet."
	MsgNoCachedResponses = "No cached responses."
	MsgHistoryCleared    = "History cleared."
	MsgCacheCleared      = "Cache cleared."
)

// Prompts and labels
const (
	ChatPrompt   = "> "
	ChatExit     = "/exit"
	SpinnerLabel = "Thinking..."
)
