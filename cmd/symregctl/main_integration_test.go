//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunCommandSQLitePersistsAcrossCommands(t *testing.T) {
	workdir := t.TempDir()
	dbPath := filepath.Join(workdir, "symreg.db")
	artifactsDir := filepath.Join(workdir, "artifacts")

	args := []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--artifacts-dir", artifactsDir,
		"--dataset", "poly3",
		"--samples", "60",
		"--pop", "20",
		"--gens", "3",
		"--seed", "11",
		"--workers", "2",
		"--max-depth", "5",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	queries := [][]string{
		{"runs", "--store", "sqlite", "--db-path", dbPath},
		{"fitness", "--store", "sqlite", "--db-path", dbPath},
		{"top", "--store", "sqlite", "--db-path", dbPath, "--limit", "3"},
		{"diagnostics", "--store", "sqlite", "--db-path", dbPath},
		{"plot", "--store", "sqlite", "--db-path", dbPath, "--artifacts-dir", artifactsDir},
	}
	for _, query := range queries {
		if err := run(context.Background(), query); err != nil {
			t.Fatalf("%s command: %v", query[0], err)
		}
	}

	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		t.Fatalf("read artifacts dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one run directory, got %d", len(entries))
	}
	plotPath := filepath.Join(artifactsDir, entries[0].Name(), "fitness.png")
	if _, err := os.Stat(plotPath); err != nil {
		t.Fatalf("expected plot at %s: %v", plotPath, err)
	}
}
