package structured

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage names the step of an attempt that produced its outcome.
type Stage string

const (
	StageOK        Stage = "ok"
	StageTransport Stage = "transport"
	StageParse     Stage = "parse"
	StageSchema    Stage = "schema"
)

// ParseError reports a reply that is not well-formed JSON.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse: " + e.Msg
}

// SchemaError reports a well-formed reply that violates the declared contract.
type SchemaError struct {
	Schema string
	Msg    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Schema, e.Msg)
}

// Attempt is the record of one request/validate cycle.
type Attempt struct {
	Index       int
	Instruction string
	// Raw is the backend reply text; HasRaw is false when the attempt failed before a reply arrived.
	Raw      string
	HasRaw   bool
	Stage    Stage
	Err      error
	Duration time.Duration
}

// RetryExhaustedError is returned after every attempt failed.
type RetryExhaustedError struct {
	Schema   string
	Attempts []Attempt
}

func (e *RetryExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to obtain valid %s after %d attempts", e.Schema, len(e.Attempts))
	if last, ok := e.last(); ok {
		fmt.Fprintf(&b, " (attempt %d failed at %s stage: %v)", last.Index, last.Stage, last.Err)
	}
	if raw, ok := e.LastRaw(); ok {
		fmt.Fprintf(&b, ". Last raw output:\n%s", raw)
	} else {
		b.WriteString(". No raw output was received")
	}
	return b.String()
}

// Unwrap returns the failure of the final attempt.
func (e *RetryExhaustedError) Unwrap() error {
	if last, ok := e.last(); ok {
		return last.Err
	}
	return nil
}

// LastRaw returns the most recent raw reply seen across all attempts.
func (e *RetryExhaustedError) LastRaw() (string, bool) {
	for i := len(e.Attempts) - 1; i >= 0; i-- {
		if e.Attempts[i].HasRaw {
			return e.Attempts[i].Raw, true
		}
	}
	return "", false
}

func (e *RetryExhaustedError) last() (Attempt, bool) {
	if len(e.Attempts) == 0 {
		return Attempt{}, false
	}
	return e.Attempts[len(e.Attempts)-1], true
}

// StageOf classifies an attempt failure.
func StageOf(err error) Stage {
	if err == nil {
		return StageOK
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return StageParse
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return StageSchema
	}
	return StageTransport
}

// CorrectionNote describes a content failure for the next attempt's instruction.
// Transport-stage failures produce no note.
func CorrectionNote(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("Previous output failed JSON parsing: %s\nReturn ONLY a single JSON object that validates against the schema.", pe.Msg)
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return fmt.Sprintf("Previous output failed schema validation: %s\nReturn ONLY a single JSON object that validates against the schema.", se.Msg)
	}
	return ""
}

