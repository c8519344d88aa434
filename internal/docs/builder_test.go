package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/chore/internal/config"
	"github.com/mmr-tortoise/chore/internal/model"
)

// setupProject creates a project root with a source directory for one
// docs target and returns a config whose generator is the given argv
// template. The tests use sh scripts as stand-in generators.
func setupProject(t *testing.T, generator []string) *config.Config {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "lib"), 0755))

	return &config.Config{
		Version: 1,
		Root:    root,
		Docs: config.DocsConfig{
			Output:    "docs",
			Generator: generator,
			Targets: []config.DocsTarget{
				{Name: "lib", Source: filepath.Join("src", "lib")},
			},
		},
	}
}

// TestBuild_RelocatesSubdirectory verifies the main contract: the
// generator writes into {staging}/<subdir>/, and after Build the files
// appear directly under the docs root with the subdirectory flattened
// away and staging removed.
func TestBuild_RelocatesSubdirectory(t *testing.T) {
	// The stub generator mimics pdoc: it creates a module-named
	// subdirectory inside the staging dir and writes HTML files there.
	cfg := setupProject(t, []string{"sh", "-c",
		`mkdir -p "$1/lib" && echo '<html>index</html>' > "$1/lib/index.html" && echo '<html>api</html>' > "$1/lib/api.html"`,
		"gen", "{staging}"})

	b := NewBuilder(cfg, nil)
	result, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.NoError(t, err)

	assert.Equal(t, "lib", result.Target)
	assert.Equal(t, 2, result.FilesMoved)

	// Files were hoisted out of the generator-chosen subdirectory.
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "index.html"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "api.html"))
	assert.NoDirExists(t, filepath.Join(cfg.OutputDir(), "lib"),
		"the generator-chosen subdirectory should not survive relocation")
}

// TestBuild_FlatOutput verifies that a generator writing files directly
// into staging (no chosen subdirectory) has its entries moved as-is.
func TestBuild_FlatOutput(t *testing.T) {
	cfg := setupProject(t, []string{"sh", "-c",
		`echo a > "$1/a.txt" && echo b > "$1/b.txt"`,
		"gen", "{staging}"})

	b := NewBuilder(cfg, nil)
	result, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesMoved)
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "a.txt"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "b.txt"))
}

// TestBuild_ReplacesStaleOutput verifies that a rebuild overwrites
// entries left behind by a previous build.
func TestBuild_ReplacesStaleOutput(t *testing.T) {
	cfg := setupProject(t, []string{"sh", "-c",
		`mkdir -p "$1/lib" && echo fresh > "$1/lib/index.html"`,
		"gen", "{staging}"})

	// Simulate a previous build's output.
	require.NoError(t, os.MkdirAll(cfg.OutputDir(), 0755))
	stale := filepath.Join(cfg.OutputDir(), "index.html")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0644))

	b := NewBuilder(cfg, nil)
	_, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.NoError(t, err)

	content, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(content))
}

// TestBuild_GeneratorFailure verifies that a non-zero generator exit
// aborts the build with ExitGeneratorError and leaves the docs root
// untouched — the redesign of the shell scripts' silent failure mode.
func TestBuild_GeneratorFailure(t *testing.T) {
	cfg := setupProject(t, []string{"sh", "-c",
		`echo "generator exploded" >&2; exit 7`})

	b := NewBuilder(cfg, nil)
	_, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneratorError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "generator exploded")

	assert.NoDirExists(t, cfg.OutputDir(),
		"a failed generation must not create or modify the docs root")
}

// TestBuild_EmptyOutput verifies that a generator that exits zero but
// produces nothing is reported as an error rather than silently
// succeeding with an empty docs root.
func TestBuild_EmptyOutput(t *testing.T) {
	cfg := setupProject(t, []string{"true"})

	b := NewBuilder(cfg, nil)
	_, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneratorError, cliErr.Code)
}

// TestBuild_MissingSource verifies the preflight check on the target's
// source directory.
func TestBuild_MissingSource(t *testing.T) {
	cfg := setupProject(t, []string{"true"})
	cfg.Docs.Targets[0].Source = filepath.Join("src", "nonexistent")

	b := NewBuilder(cfg, nil)
	_, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneratorError, cliErr.Code)
}

// TestBuild_MissingGenerator verifies the PATH preflight check.
func TestBuild_MissingGenerator(t *testing.T) {
	cfg := setupProject(t, []string{"definitely-not-a-real-binary-xyz"})

	b := NewBuilder(cfg, nil)
	_, err := b.Build(context.Background(), cfg.Docs.Targets[0])
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitToolNotFound, cliErr.Code)
}

// TestBuildAll_AbortsOnFailure verifies sequential multi-target builds
// stop at the first failing target.
func TestBuildAll_AbortsOnFailure(t *testing.T) {
	cfg := setupProject(t, []string{"sh", "-c",
		// Succeed for src/lib, fail for anything else.
		`case "$2" in */src/lib) echo ok > "$1/out.txt" ;; *) exit 1 ;; esac`,
		"gen", "{staging}", "{source}"})

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, "src", "broken"), 0755))
	cfg.Docs.Targets = append(cfg.Docs.Targets,
		config.DocsTarget{Name: "broken", Source: filepath.Join("src", "broken")},
		config.DocsTarget{Name: "never-reached", Source: filepath.Join("src", "lib")},
	)

	b := NewBuilder(cfg, nil)
	results, err := b.BuildAll(context.Background())
	require.Error(t, err)

	// Only the first target completed before the abort.
	require.Len(t, results, 1)
	assert.Equal(t, "lib", results[0].Target)
}

// TestScopedRemoveAll verifies the destructive-delete containment guard.
func TestScopedRemoveAll(t *testing.T) {
	t.Run("deletes paths inside root", func(t *testing.T) {
		root := t.TempDir()
		victim := filepath.Join(root, "sub")
		require.NoError(t, os.MkdirAll(victim, 0755))

		require.NoError(t, scopedRemoveAll(root, victim))
		assert.NoDirExists(t, victim)
	})

	t.Run("refuses paths outside root", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		marker := filepath.Join(outside, "keep.txt")
		require.NoError(t, os.WriteFile(marker, []byte("keep"), 0644))

		err := scopedRemoveAll(root, outside)
		require.Error(t, err)
		assert.FileExists(t, marker, "files outside the scope must never be deleted")
	})

	t.Run("refuses parent traversal", func(t *testing.T) {
		root := t.TempDir()
		err := scopedRemoveAll(root, filepath.Join(root, "..", "elsewhere"))
		assert.Error(t, err)
	})

	t.Run("allows deleting the root itself", func(t *testing.T) {
		root := t.TempDir()
		staging := filepath.Join(root, "staging")
		require.NoError(t, os.MkdirAll(staging, 0755))

		require.NoError(t, scopedRemoveAll(staging, staging))
		assert.NoDirExists(t, staging)
	})
}

// TestMoveEntry_CopyFallback exercises the copy-then-delete path used
// when rename is not possible, by moving a directory tree and checking
// the destination contents.
func TestMoveEntry_CopyFallback(t *testing.T) {
	src := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "f.txt"), []byte("x"), 0644))

	dst := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, copyRecursive(src, dst))
	require.NoError(t, os.RemoveAll(src))

	assert.FileExists(t, filepath.Join(dst, "nested", "f.txt"))
}
