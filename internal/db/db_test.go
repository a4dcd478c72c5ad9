package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDSNTakesWriteLockOnBegin(t *testing.T) {
	got := dsn("oprema.sqlite3")
	if !strings.Contains(got, "_txlock=immediate") {
		t.Errorf("expected immediate transactions, got %q", got)
	}
	if !strings.HasPrefix(got, "oprema.sqlite3?_pragma=") {
		t.Errorf("unexpected dsn %q", got)
	}
	if got := dsn("file:x.db?mode=rwc"); !strings.HasPrefix(got, "file:x.db?mode=rwc&") {
		t.Errorf("expected params appended to existing query, got %q", got)
	}
}

func TestConcurrentReadThenWriteTransactions(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()

	if _, err := conn.ExecContext(ctx, `CREATE TABLE counter (n INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO counter (n) VALUES (0)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- RunInTx(ctx, conn, func(tx DBTX) error {
				var n int
				if err := tx.QueryRowContext(ctx, `SELECT n FROM counter`).Scan(&n); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `UPDATE counter SET n = ?`, n+1)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("transaction failed: %v", err)
		}
	}
	var n int
	if err := conn.QueryRowContext(ctx, `SELECT n FROM counter`).Scan(&n); err != nil {
		t.Fatalf("select: %v", err)
	}
	if n != workers {
		t.Errorf("expected %d increments, got %d", workers, n)
	}
}
