package acquire

import "errors"

// ErrTimeout is returned by Source.Read when the read deadline expires with no
// data. It is an explicit "no data yet" signal, not a transport failure, and
// keeps the loop responsive to configuration changes and shutdown.
var ErrTimeout = errors.New("acquire: read timed out")

// Source is a byte stream from the instrument. Read blocks for at most the
// transport's read timeout and returns ErrTimeout when it expires without
// data; any other error is a hard transport failure.
type Source interface {
	Read(p []byte) (int, error)
	Close() error
}

// Opener acquires a new Source. The loop calls it on start and again after
// every transport failure.
type Opener func() (Source, error)
