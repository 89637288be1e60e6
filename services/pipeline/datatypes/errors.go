// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"errors"
	"fmt"
)

// ErrPredictorOverloaded marks a transient predictor failure (capacity or
// availability, not a bad request). The pipeline degrades gracefully on it
// instead of failing the run.
var ErrPredictorOverloaded = errors.New("predictor temporarily overloaded")

// PredictorError wraps a failure from one of the external predictor
// services, naming which predictor and operation failed.
type PredictorError struct {
	Predictor string
	Op        string
	Err       error
}

func (e *PredictorError) Error() string {
	return fmt.Sprintf("%s predictor: %s: %v", e.Predictor, e.Op, e.Err)
}

func (e *PredictorError) Unwrap() error { return e.Err }

// IsTransient reports whether err represents a transient predictor overload
// that should degrade, not abort, the run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrPredictorOverloaded)
}
