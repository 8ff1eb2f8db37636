package apps

import "fmt"

// ArgumentError reports a command line argument that is missing or invalid.
type ArgumentError struct {
	Arg string
	msg string
}

func NewArgumentError(arg, format string, a ...interface{}) *ArgumentError {
	return &ArgumentError{Arg: arg, msg: fmt.Sprintf(format, a...)}
}

func (err *ArgumentError) Error() string {
	if err.Arg == "" {
		return err.msg
	}
	return "-" + err.Arg + ": " + err.msg
}
