package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnavailable is absorbed by the fetcher, which falls back to local data
	ErrNetworkUnavailable = errors.New("network source unavailable")
	// ErrMissingData means neither the remote source nor a local store could serve the request
	ErrMissingData = errors.New("no draw history available")
	// ErrNoModelForPredictOnly is the predict-only validation failure
	ErrNoModelForPredictOnly = errors.New("no trained model found and predict-only was requested")
	// ErrUnparsableOutput means the predict step printed no usable prediction
	ErrUnparsableOutput = errors.New("could not parse prediction output")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrInvalidSplit     = errors.New("train/test split must be within [0.5, 1.0)")
)

// SubprocessError carries a failed step's exit code
type SubprocessError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step failed with exit code %d: %v", e.Step, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s step failed with exit code %d", e.Step, e.ExitCode)
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}
