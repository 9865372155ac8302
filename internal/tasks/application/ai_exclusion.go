// Package application holds the pure scheduling-input functions: the
// AI-exclusion gate, tiering, and ranking. None of these suspend or perform
// I/O; every dependency (notably "now") is passed in explicitly.
package application

import (
	"strings"

	taskdomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
)

// IsAIExcluded reports whether a task must never be sent to an AI inference
// call. This must be consulted before any such call; excluded tasks never
// leave the process for inference, never receive AI-updated attributes, and
// never change tier as a result of inference.
func IsAIExcluded(task *taskdomain.Task) bool {
	if strings.HasPrefix(task.Title(), ".") {
		return true
	}
	return task.AIExcluded()
}

// FilterAIExcluded partitions tasks into (allowed, excluded), preserving the
// input order within each partition.
func FilterAIExcluded(tasks []*taskdomain.Task) (allowed, excluded []*taskdomain.Task) {
	for _, t := range tasks {
		if IsAIExcluded(t) {
			excluded = append(excluded, t)
		} else {
			allowed = append(allowed, t)
		}
	}
	return allowed, excluded
}
