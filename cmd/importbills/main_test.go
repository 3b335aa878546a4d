package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/models"
	"billed/internal/storage"
)

const twoBills = `[
  {"email":"a@a","type":"Transports","name":"Train","date":"2022-10-21","amount":45,"pct":20},
  {"email":"a@a","type":"Hôtel et logement","date":"2004-04-04","amount":400,"pct":20,"status":"accepted"}
]`

func listBills(t *testing.T, dbPath string) []models.Bill {
	t.Helper()
	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()
	bills, err := db.ListBills(context.Background())
	require.NoError(t, err)
	return bills
}

func TestRun_FromStdin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stdin.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run([]string{"-db", dbPath}, bytes.NewBufferString(twoBills), stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Imported 2 of 2 bills")

	bills := listBills(t, dbPath)
	require.Len(t, bills, 2)
	assert.NotEmpty(t, bills[0].ID)
	assert.Equal(t, models.StatusPending, bills[0].Status, "status defaults to pending")
	assert.Equal(t, models.StatusAccepted, bills[1].Status)
}

func TestRun_FromFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "file.db")
	file := filepath.Join(dir, "bills.json")
	require.NoError(t, os.WriteFile(file, []byte(twoBills), 0o644))

	stdout := new(bytes.Buffer)
	err := run([]string{"-file", file, "-db", dbPath}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Len(t, listBills(t, dbPath), 2)
}

func TestRun_RejectedBills(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rejected.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	input := `[{"email":"a@a","type":"Casino","date":"2022-10-21","amount":1},
	           {"email":"a@a","type":"Transports","date":"2022-10-21","amount":1}]`

	err := run([]string{"-db", dbPath}, bytes.NewBufferString(input), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 bills rejected")
	assert.Contains(t, stderr.String(), "bill 0 skipped")
	assert.Contains(t, stdout.String(), "Imported 1 of 2 bills")
	assert.Len(t, listBills(t, dbPath), 1)
}

func TestRun_InvalidJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "invalid.db")
	err := run([]string{"-db", dbPath}, bytes.NewBufferString("not json"), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode bills")
}

func TestRun_MissingFile(t *testing.T) {
	err := run([]string{"-file", filepath.Join(t.TempDir(), "nope.json")}, nil, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}

func TestRun_NoInput(t *testing.T) {
	stdout := new(bytes.Buffer)
	err := run(nil, nil, stdout, new(bytes.Buffer))
	require.ErrorIs(t, err, errNoInput)
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_EnvVarOverride(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DB_PATH", dbPath)

	err := run(nil, bytes.NewBufferString(twoBills), new(bytes.Buffer), new(bytes.Buffer))
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestRun_InvalidDBPath(t *testing.T) {
	// Use a directory path as DB file path, which should fail
	err := run([]string{"-db", t.TempDir()}, bytes.NewBufferString(twoBills), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}
