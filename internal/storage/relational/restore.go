package relational

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/filex"
)

var sqliteHeader = []byte("SQLite format 3\x00")

// RestoreDefault replaces the SQLite database file with the configured
// default snapshot. The snapshot is staged and opened next to the database
// first, then every connection is closed, the file swapped and the database
// reopened. If the reopen fails the previous file is put back. Calls made
// meanwhile wait on the store lock.
func (s *Store) RestoreDefault(ctx context.Context) error {
	if s.dialect != dbx.SQLite {
		return fmt.Errorf("%w: restore is only available for sqlite", common.ErrUnsupported)
	}
	path, ok := sqliteFilePath(s.dialect, s.dsn)
	if !ok {
		return fmt.Errorf("%w: restore needs a file database", common.ErrUnsupported)
	}
	if s.snapshot == nil {
		return fmt.Errorf("%w: no default snapshot configured", common.ErrUnsupported)
	}

	staged, err := s.stageSnapshot(ctx, path)
	if err != nil {
		return err
	}
	defer os.Remove(staged)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return common.StorageFailure("close database", err)
		}
		s.db = nil
	}

	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return s.reopenAfter(ctx, common.StorageFailure("back up database", err))
	}

	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return s.rollbackTo(ctx, path, backup, common.StorageFailure("remove "+suffix, err))
		}
	}

	if err := os.Rename(staged, path); err != nil {
		return s.rollbackTo(ctx, path, backup, common.StorageFailure("replace database", err))
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return s.rollbackTo(ctx, path, backup, err)
	}
	s.db = db
	_ = os.Remove(backup)
	return nil
}

// rollbackTo puts backup back in place of path and reopens it. cause is
// returned either way; a failed rollback is joined to it.
func (s *Store) rollbackTo(ctx context.Context, path, backup string, cause error) error {
	_ = os.Remove(path)
	if err := os.Rename(backup, path); err != nil {
		return errors.Join(cause, common.StorageFailure("restore backup", err))
	}
	return s.reopenAfter(ctx, cause)
}

func (s *Store) reopenAfter(ctx context.Context, cause error) error {
	db, err := s.openDB(ctx)
	if err != nil {
		return errors.Join(cause, err)
	}
	s.db = db
	return cause
}

// stageSnapshot copies the snapshot to a temporary sibling of path and
// checks that it opens as a sound SQLite database.
func (s *Store) stageSnapshot(ctx context.Context, path string) (string, error) {
	rc, err := s.snapshot.Open(ctx)
	if err != nil {
		if common.IsDomain(err) {
			return "", err
		}
		return "", common.StorageFailure("open snapshot "+s.snapshot.String(), err)
	}
	defer rc.Close()

	staged := filex.TempPath(path, ".restore")
	if err := filex.WriteStreamAtomic(staged, rc, 0o660); err != nil {
		return "", common.StorageFailure("stage snapshot", err)
	}

	if err := checkSQLiteFile(staged); err != nil {
		_ = os.Remove(staged)
		return "", err
	}
	if err := s.checkSnapshotDB(ctx, staged); err != nil {
		_ = os.Remove(staged)
		return "", err
	}
	return staged, nil
}

func checkSQLiteFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return common.StorageFailure("read staged snapshot", err)
	}
	defer f.Close()

	head := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, sqliteHeader) {
		return fmt.Errorf("%w: default snapshot is not a sqlite database", common.ErrInvalidInput)
	}
	return nil
}

// checkSnapshotDB opens the staged copy the way the store will, migrates it
// and runs an integrity check over every page.
func (s *Store) checkSnapshotDB(ctx context.Context, staged string) error {
	db, err := s.openAt(ctx, staged)
	if err != nil {
		return fmt.Errorf("%w: default snapshot cannot be opened: %w", common.ErrInvalidInput, err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: default snapshot integrity check: %w", common.ErrInvalidInput, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: default snapshot is corrupt: %s", common.ErrInvalidInput, result)
	}
	return nil
}
