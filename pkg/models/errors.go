package models

import "fmt"

// OpenError reports an input file that could not be opened
type OpenError struct {
	Kind string // Human readable name of the input
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open %s '%s': %v", e.Kind, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
