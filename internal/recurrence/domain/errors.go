package domain

import "errors"

var (
	ErrEmptyTitle       = errors.New("series title must not be empty")
	ErrInvalidInterval  = errors.New("recurrence interval must be positive")
	ErrSeriesPaused     = errors.New("series is paused")
	ErrSeriesNotFound   = errors.New("recurring series not found")
	ErrTimeBlockNotFound = errors.New("recurring time block not found")
	ErrInvalidTimeRange = errors.New("time block end must be after start")
)
