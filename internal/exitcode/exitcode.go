package exitcode

// Exit codes for clipask commands
const (
	Success     = 0
	Error       = 1
	NoBackend   = 2
	BadQuestion = 3
	Cancelled   = 130 // 128 + SIGINT
)

// ExitError is an error that carries a specific exit code
type ExitError struct {
	Code    int
	Message string
}

func (e ExitError) Error() string {
	return e.Message
}

// Convenience constructors
func Unavailable(msg string) ExitError { return ExitError{Code: NoBackend, Message: msg} }
func Invalid(msg string) ExitError     { return ExitError{Code: BadQuestion, Message: msg} }
func Cancel() ExitError                { return ExitError{Code: Cancelled, Message: "cancelled"} }
