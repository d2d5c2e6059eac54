package realtime

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the presented credential cannot be
// verified. The connection is rejected and never admitted to the registry.
var ErrUnauthorized = errors.New("realtime: connection credential rejected")

// ErrRegistryClosed is returned when operations are attempted on a closed registry.
type ErrRegistryClosed struct{}

func (e ErrRegistryClosed) Error() string {
	return "realtime: registry is closed"
}

// ErrConnectionNotFound is returned when the connection ID is unknown.
type ErrConnectionNotFound struct {
	ID string
}

func (e ErrConnectionNotFound) Error() string {
	return fmt.Sprintf("realtime: connection %s not found", e.ID)
}

// ErrConnectionClosed is returned when operating on an already closed connection.
type ErrConnectionClosed struct {
	ID string
}

func (e ErrConnectionClosed) Error() string {
	return fmt.Sprintf("realtime: connection %s is closed", e.ID)
}

// ErrShutdownTimeout is returned when registry shutdown exceeds its bound.
type ErrShutdownTimeout struct{}

func (e ErrShutdownTimeout) Error() string {
	return "realtime: shutdown timeout exceeded"
}
