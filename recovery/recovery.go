package recovery

import "errors"

// Structural anomalies the parser recovers from. None of them abort a pass.
var (
	ErrUnmatchedClose  = errors.New("unmatched group close")
	ErrDanglingGroups  = errors.New("dangling open groups at end of input")
	ErrTruncatedBinary = errors.New("binary blob truncated at end of input")
	ErrParamRange      = errors.New("control word parameter out of range")
)

type Strategy interface {
	OnError(err error, location Location)
}

type Location struct {
	ByteOffset int64
	Depth      int
	Component  string
}
