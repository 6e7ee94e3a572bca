package errcodes

import (
	"fmt"
	"io/fs"
	"syscall"

	"github.com/pkg/errors"
)

const (
	CodeCorruptFile          = "corrupt_file"
	CodeToolUnavailable      = "tool_unavailable"
	CodeToolInvocation       = "tool_invocation_error"
	CodeNoISBNFound          = "no_isbn_found"
	CodeNoMetadataFound      = "no_metadata_found"
	CodeDestinationCollision = "destination_collision"
	CodeConfiguration        = "configuration_error"
	CodeFilesystem           = "filesystem_error"
)

type Error struct {
	Code    string
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Message == err.Message &&
		te.Code == err.Code
}

// CorruptFile returns an error carrying the corruption reason of a file.
func CorruptFile(reason string) error {
	return &Error{CodeCorruptFile, reason}
}

// ToolUnavailable returns an error indicating that an external program is not
// installed or not on the PATH.
func ToolUnavailable(tool string) error {
	return &Error{
		CodeToolUnavailable,
		fmt.Sprintf("%s is not installed or not in PATH", tool),
	}
}

// ToolInvocation returns an error for an external program that ran but
// reported a failure.
func ToolInvocation(tool, detail string) error {
	msg := tool + " failed"
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{CodeToolInvocation, msg}
}

func NoISBNFound() error {
	return &Error{CodeNoISBNFound, "No ISBNs found"}
}

func NoMetadataFound(what string) error {
	return &Error{
		CodeNoMetadataFound,
		"Could not fetch metadata for " + what,
	}
}

func DestinationCollision(path string) error {
	return &Error{
		CodeDestinationCollision,
		fmt.Sprintf("File %q already exists in destination", path),
	}
}

func Configuration(msg string) error {
	return &Error{CodeConfiguration, msg}
}

// Filesystem wraps a filesystem failure that should abort the whole run.
func Filesystem(op string, err error) error {
	return &Error{
		CodeFilesystem,
		fmt.Sprintf("%s: %s", op, err),
	}
}

// HasCode reports whether any error in err's chain is an *Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// IsFatal reports whether err should stop the whole run instead of only the
// file being processed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if HasCode(err, CodeConfiguration) || HasCode(err, CodeFilesystem) {
		return true
	}
	return IsFatalFilesystemErr(err)
}

// IsFatalFilesystemErr matches permission and out-of-space failures.
func IsFatalFilesystemErr(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EROFS)
}
