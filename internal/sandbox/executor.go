// executor.go implements containerized execution of single test files.
//
// Each test file runs in its own disposable container: "docker run --rm"
// with the project root bind-mounted read-only. The docker CLI is used
// for running (it handles image pulling, TTY plumbing, and exit code
// propagation with the flags users already know), while the Docker SDK
// handles discovery and removal of leftover containers.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/chore/internal/execx"
	"github.com/mmr-tortoise/chore/internal/model"
)

// workspaceMount is the path the project root is mounted at inside
// sandbox containers.
const workspaceMount = "/workspace"

// Executor runs test files inside disposable containers. It satisfies
// the testrun.Executor interface.
type Executor struct {
	// Image is the container image the interpreter runs in.
	Image string

	// Interpreter is the argv prefix executed inside the container;
	// the test file path is appended.
	Interpreter []string

	// ProjectRoot is the absolute project root bind-mounted into the
	// container.
	ProjectRoot string
}

// RunFile executes one test file inside a fresh container and reports
// the interpreter's exit code. "docker run" propagates the container's
// exit status, so a failing test surfaces exactly like a local run.
//
// Docker reserves exit codes 125 (daemon error), 126 (command not
// invokable), and 127 (command not found) for its own failures; those
// are reported as errors rather than test failures so that a broken
// sandbox setup is not mistaken for a failing test suite.
func (e *Executor) RunFile(ctx context.Context, dir, file string, stdout, stderr io.Writer) (int, error) {
	relDir, err := filepath.Rel(e.ProjectRoot, dir)
	if err != nil {
		return -1, fmt.Errorf("tests directory %s is outside the project root %s: %w", dir, e.ProjectRoot, err)
	}

	labels := BuildLabels(e.ProjectRoot, file, time.Now())

	args := []string{"run", "--rm"}
	args = append(args, LabelArgs(labels)...)
	args = append(args,
		"-v", e.ProjectRoot+":"+workspaceMount+":ro",
		"-w", filepath.ToSlash(filepath.Join(workspaceMount, relDir)),
	)
	args = append(args, e.Image)
	args = append(args, e.Interpreter...)
	args = append(args, file)

	code, err := execx.Stream(ctx, e.ProjectRoot, stdout, stderr, append([]string{"docker"}, args...)...)
	if err != nil {
		return -1, err
	}
	if code >= 125 {
		return -1, fmt.Errorf("docker run failed with exit code %d for %s", code, file)
	}
	return code, nil
}

// ListLeftover returns the IDs of sandbox containers that survived an
// interrupted run, filtered by the chore management label. When
// projectRoot is non-empty, only containers belonging to that project
// are returned.
//
// The filter is applied server-side by the Docker daemon, which is more
// efficient than listing all containers and filtering in Go.
func ListLeftover(ctx context.Context, cli *Client, projectRoot string) ([]string, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", ManagedFilter()),
	)
	if projectRoot != "" {
		filterArgs.Add("label", LabelProject+"="+projectRoot)
	}

	// All ensures stopped containers are included; an interrupted run
	// typically leaves its container in the exited state.
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list sandbox containers",
			err,
		)
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// RemoveLeftover force-removes the given sandbox containers. Force
// removal kills still-running containers first, which is what cleanup
// after an interrupted run wants.
func RemoveLeftover(ctx context.Context, cli *Client, ids []string) error {
	for _, id := range ids {
		err := cli.Inner().ContainerRemove(ctx, id, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			return model.WrapCLIError(
				model.ExitDockerNotRunning,
				fmt.Sprintf("failed to remove sandbox container %q", id),
				err,
			)
		}
	}
	return nil
}
