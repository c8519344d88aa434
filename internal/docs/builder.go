// Package docs implements the documentation build-and-relocate sequence.
//
// The external documentation generator is treated as a black box: it is
// given a staging directory to write into and typically produces its
// output under a subdirectory it chooses itself (e.g. pdoc writes
// {staging}/<module>/). After the generator exits successfully, the
// Builder hoists the generated files out of that subdirectory into the
// shared docs root, then removes the staging directory.
//
// Two guarantees distinguish this from the shell scripts it replaces:
//   - The generator's exit status is checked, and a failure aborts the
//     build with a clear error instead of letting later steps operate
//     on missing or stale files.
//   - Staging lives in a fresh temporary directory, and every recursive
//     delete is containment-checked against it, so a misconfigured
//     output path can never escalate into deleting unrelated files.
package docs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmr-tortoise/chore/internal/config"
	"github.com/mmr-tortoise/chore/internal/execx"
	"github.com/mmr-tortoise/chore/internal/model"
)

// Builder runs the documentation generator for configured targets and
// relocates the output into the docs root.
type Builder struct {
	cfg *config.Config

	// log receives progress messages; the CLI wires this to its
	// verbose logger. A nil log discards messages.
	log func(format string, args ...interface{})
}

// NewBuilder creates a Builder for the given configuration.
// The log function may be nil.
func NewBuilder(cfg *config.Config, log func(format string, args ...interface{})) *Builder {
	if log == nil {
		log = func(string, ...interface{}) {}
	}
	return &Builder{cfg: cfg, log: log}
}

// BuildAll builds every configured target in order, aborting on the
// first failure. Returns one DocsResult per successfully built target.
func (b *Builder) BuildAll(ctx context.Context) ([]model.DocsResult, error) {
	results := make([]model.DocsResult, 0, len(b.cfg.Docs.Targets))
	for _, target := range b.cfg.Docs.Targets {
		result, err := b.Build(ctx, target)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Build generates documentation for a single target.
//
// The sequence is strictly ordered: the generator process is waited on
// before any relocation happens, so the relocate step always observes
// the generator's complete output.
func (b *Builder) Build(ctx context.Context, target config.DocsTarget) (model.DocsResult, error) {
	start := time.Now()

	if err := execx.LookPath(b.cfg.Docs.Generator); err != nil {
		return model.DocsResult{}, err
	}

	source := filepath.Join(b.cfg.Root, target.Source)
	if _, err := os.Stat(source); err != nil {
		return model.DocsResult{}, model.WrapCLIError(model.ExitGeneratorError,
			fmt.Sprintf("docs target %q: source directory %s not found", target.Name, target.Source), err)
	}

	// Stage into a fresh temp directory rather than generating straight
	// into the docs root. This keeps partial output of a failed run out
	// of the published tree and scopes the cleanup delete below.
	staging, err := os.MkdirTemp("", "chore-docs-"+target.Name+"-")
	if err != nil {
		return model.DocsResult{}, model.WrapCLIError(model.ExitGeneratorError,
			"failed to create staging directory", err)
	}
	defer func() {
		// Best-effort cleanup on error paths; the success path removes
		// staging before returning.
		if _, statErr := os.Stat(staging); statErr == nil {
			_ = scopedRemoveAll(staging, staging)
		}
	}()

	argv := execx.Expand(b.cfg.Docs.Generator, map[string]string{
		"source":  source,
		"staging": staging,
		"name":    target.Name,
	})

	b.log("Generating docs for %s: %s", target.Name, strings.Join(argv, " "))
	if _, err := execx.Run(ctx, model.ExitGeneratorError, b.cfg.Root, argv...); err != nil {
		return model.DocsResult{}, err
	}

	outputDir := b.cfg.OutputDir()
	moved, err := relocate(staging, outputDir)
	if err != nil {
		return model.DocsResult{}, err
	}
	b.log("Relocated %d entries into %s", moved, outputDir)

	if err := scopedRemoveAll(staging, staging); err != nil {
		return model.DocsResult{}, err
	}

	return model.DocsResult{
		Target:     target.Name,
		OutputDir:  outputDir,
		FilesMoved: moved,
		Duration:   time.Since(start),
	}, nil
}

// relocate moves generated entries from the staging directory into the
// docs output root, flattening exactly one level of generator-chosen
// subdirectory: when staging contains a single directory and nothing
// else, that directory's contents are hoisted; otherwise the staged
// entries move as-is. Existing entries in the output root with the same
// names are replaced.
//
// Returns the number of top-level entries moved.
func relocate(staging, outputDir string) (int, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitGeneratorError,
			"failed to read staging directory", err)
	}
	if len(entries) == 0 {
		return 0, model.NewCLIError(model.ExitGeneratorError,
			"documentation generator produced no output")
	}

	srcDir := staging
	if len(entries) == 1 && entries[0].IsDir() {
		// The generator chose its own subdirectory; hoist its contents
		// up into the output root.
		srcDir = filepath.Join(staging, entries[0].Name())
		entries, err = os.ReadDir(srcDir)
		if err != nil {
			return 0, model.WrapCLIError(model.ExitGeneratorError,
				"failed to read generator output directory", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, model.WrapCLIError(model.ExitGeneratorError,
			fmt.Sprintf("failed to create docs output directory %s", outputDir), err)
	}

	moved := 0
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(outputDir, entry.Name())

		// Replace any stale entry from a previous build. The delete is
		// scoped to the output root.
		if _, statErr := os.Lstat(dst); statErr == nil {
			if err := scopedRemoveAll(outputDir, dst); err != nil {
				return moved, err
			}
		}

		if err := moveEntry(src, dst); err != nil {
			return moved, model.WrapCLIError(model.ExitGeneratorError,
				fmt.Sprintf("failed to move %s into %s", entry.Name(), outputDir), err)
		}
		moved++
	}

	return moved, nil
}

// scopedRemoveAll recursively deletes path, but only if path lies within
// root. This is the guard against destructive deletes escaping their
// intended scope: a bug or misconfiguration that produces a path outside
// root results in an error, never in data loss.
func scopedRemoveAll(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve delete scope", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve delete path", err)
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("refusing to delete %s: outside of %s", absPath, absRoot))
	}

	if err := os.RemoveAll(absPath); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to delete %s", absPath), err)
	}
	return nil
}

// ScopedRemoveAll deletes path recursively after verifying it lies
// within root. Exported for the clean command, which removes the docs
// output root with the same containment discipline used internally.
func ScopedRemoveAll(root, path string) error {
	return scopedRemoveAll(root, path)
}

// moveEntry moves a file or directory from src to dst, preferring an
// atomic rename and falling back to copy-then-delete when staging and
// the docs root live on different filesystems (os.MkdirTemp commonly
// lands on a tmpfs).
func moveEntry(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyRecursive(src, dst); err != nil {
		return err
	}
	// src is inside staging, which its caller verified; removing it here
	// completes the move semantics of the rename fallback.
	return os.RemoveAll(src)
}

// copyRecursive copies a file or directory tree from src to dst,
// preserving file modes.
func copyRecursive(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := copyRecursive(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	}

	return copyFile(src, dst, info.Mode().Perm())
}

// copyFile copies a regular file's contents and permission bits.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
