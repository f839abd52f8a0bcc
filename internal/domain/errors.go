package domain

import "errors"

var (
	// ErrInvalidInput marks malformed client input. It never reaches the engine.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable is returned when the learned path is selected but no
	// loss model is loaded.
	ErrModelUnavailable = errors.New("loss model unavailable")

	// ErrDatasetUnavailable is returned when the wastage dataset was not loaded.
	ErrDatasetUnavailable = errors.New("wastage dataset unavailable")
)
