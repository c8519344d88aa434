package sandbox

import (
	"fmt"
	"time"
)

// Label key constants define the Docker label keys applied to sandbox
// containers. Sandbox containers are removed when their test file
// finishes, so in normal operation none exist; the labels make leftover
// containers from interrupted runs discoverable for cleanup.
//
// All keys share the "chore." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all chore labels.
	LabelPrefix = "chore."

	// LabelManagedBy identifies containers created by chore.
	// This is the primary label used for filtering and discovery.
	// Key: "chore.managed-by", Value: always "chore".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelTestFile stores the test file the container was running.
	// Key: "chore.test-file", Value: file path relative to the tests dir.
	LabelTestFile = LabelPrefix + "test-file"

	// LabelProject stores the project root the container belongs to,
	// so cleanup can be limited to the current project.
	// Key: "chore.project", Value: absolute project root path.
	LabelProject = LabelPrefix + "project"

	// LabelStartedAt stores the RFC3339 timestamp of container creation.
	// Key: "chore.started-at".
	LabelStartedAt = LabelPrefix + "started-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "chore"

// BuildLabels constructs the label map for one sandbox container.
func BuildLabels(projectRoot, testFile string, startedAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   projectRoot,
		LabelTestFile:  testFile,
		LabelStartedAt: startedAt.UTC().Format(time.RFC3339),
	}
}

// ManagedFilter returns the label filter expression matching all chore
// sandbox containers, in the "key=value" form the Docker API expects.
func ManagedFilter() string {
	return fmt.Sprintf("%s=%s", LabelManagedBy, ManagedByValue)
}

// LabelArgs renders a label map as --label flags for "docker run".
// The map iteration order is not significant to Docker, but the flags
// are returned key=value so tests can assert on content.
func LabelArgs(labels map[string]string) []string {
	args := make([]string, 0, len(labels)*2)
	for key, value := range labels {
		args = append(args, "--label", key+"="+value)
	}
	return args
}
