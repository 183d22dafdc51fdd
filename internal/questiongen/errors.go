package questiongen

import "fmt"

// ErrorKind classifies why one generation attempt failed.
type ErrorKind string

const (
	KindCompletion ErrorKind = "completion"
	KindNoJSON     ErrorKind = "no_json"
	KindDecode     ErrorKind = "decode"
	KindRejected   ErrorKind = "rejected"
)

type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func genErr(kind ErrorKind, format string, args ...interface{}) *GenerationError {
	return &GenerationError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
