package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"billed/internal/models"
	"billed/internal/storage"
	"billed/internal/store"
)

const defaultDBPath = "billed.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("importbills", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "JSON file holding an array of bills (reads stdin when piped)")
	dbPath := fs.String("db", defaultDBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Allow overriding db path via env var if not explicitly set via flag
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}

	in, closeIn, err := openInput(*file, stdin)
	if err != nil {
		if errors.Is(err, errNoInput) {
			fmt.Fprintln(stdout, "Usage: importbills [-file <bills.json>] [-db <db_path>] < bills.json")
			fs.PrintDefaults()
		}
		return err
	}
	defer closeIn()

	var bills []models.Bill
	if err := json.NewDecoder(in).Decode(&bills); err != nil {
		return fmt.Errorf("failed to decode bills: %w", err)
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	local := store.NewLocal(db, nil)
	ctx := context.Background()
	imported := 0
	for i, b := range bills {
		if _, err := local.CreateBill(ctx, b); err != nil {
			fmt.Fprintf(stderr, "bill %d skipped: %v\n", i, err)
			continue
		}
		imported++
	}

	fmt.Fprintf(stdout, "Imported %d of %d bills\n", imported, len(bills))
	if imported < len(bills) {
		return fmt.Errorf("%d bills rejected", len(bills)-imported)
	}
	return nil
}

var errNoInput = errors.New("missing input: use -file or pipe bills on stdin")

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, func() { f.Close() }, nil
	}

	// An interactive terminal has nothing to import
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil, errNoInput
	}
	if stdin == nil {
		return nil, nil, errNoInput
	}
	return stdin, func() {}, nil
}
