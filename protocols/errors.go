package protocols

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
)

// ErrorKind is the category of a filesystem failure. Adapters translate
// backend-specific failures into one of these; anything they cannot classify
// is returned to the caller unchanged.
type ErrorKind int

const (
	// KindNotFound means the target path does not exist where it was required.
	KindNotFound ErrorKind = iota + 1

	// KindAlreadyExists means a path that had to be absent is present.
	KindAlreadyExists

	// KindInvalidArgument covers rejected requests: unsupported open modes,
	// deleting a directory without recursive, malformed URL options.
	KindInvalidArgument

	// KindUnsupported means the stream or backend cannot perform the
	// operation at all, e.g. seeking a sequential stream.
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("unsupported")
)

// notFoundMessage is what HDFS-style clients put in exception text when a path
// is missing. Only used when the client gives no structured signal.
const notFoundMessage = "does not exist"

// Error is a classified filesystem failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	// Err is the underlying client error, if any.
	Err error
	// Message overrides the kind text in Error().
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound, fs.ErrNotExist:
		return e.Kind == KindNotFound
	case ErrAlreadyExists, fs.ErrExist:
		return e.Kind == KindAlreadyExists
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	}
	return false
}

func NotFound(op, path string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Path: path, Err: err}
}

func AlreadyExists(op, path string, err error) error {
	return &Error{Kind: KindAlreadyExists, Op: op, Path: path, Err: err}
}

func InvalidArgument(op, path, message string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Path: path, Message: message}
}

func Unsupported(op, path, message string) error {
	return &Error{Kind: KindUnsupported, Op: op, Path: path, Message: message}
}

// errDestinationIsDir is what Mv and CpFile report instead of replacing a
// directory with a file.
func errDestinationIsDir(op, path string) error {
	return InvalidArgument(op, path, "destination is a directory")
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Classify maps a raw client error onto the taxonomy. Structured signals
// (fs.ErrNotExist, fs.ErrExist) win; failing that, a message containing
// "does not exist" is taken as NotFound. Other errors come back unchanged.
//
// ENOTDIR means a path component is a regular file, so the path itself is
// absent and maps to NotFound as well.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return NotFound(op, path, err)
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists(op, path, err)
	case strings.Contains(err.Error(), notFoundMessage):
		return NotFound(op, path, err)
	}
	return err
}
