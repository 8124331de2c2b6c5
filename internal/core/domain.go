package core

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFetchRows caps the rows a single database query returns.
const MaxFetchRows = 5000

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMissingColumn     = errors.New("missing column")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyProject      = errors.New("empty project")
	ErrEmptyPairCode     = errors.New("empty project code")
)

// SourceError reports a failed fetch from a data source. It matches
// ErrSourceUnavailable with errors.Is and unwraps to the cause.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// Unavailable wraps err as a SourceError unless it already is one.
func Unavailable(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Source: source, Op: op, Err: err}
}

// Validate checks that both codes of the pair are present.
func (p ProjectPair) Validate() error {
	if strings.TrimSpace(p.Main) == "" || strings.TrimSpace(p.Option) == "" {
		return ErrEmptyPairCode
	}
	return nil
}
