// Package flatfile implements the storage contract on a single JSON file
// holding the ordered collection of users, each with its movies embedded.
//
// Every call loads the whole file and every write rewrites it atomically.
// Nothing is cached between calls. Calls on one Store are serialized by a
// mutex; two processes writing the same file can still lose updates, so a
// store file must have a single writer process.
//
// Movies are denormalized: each owner carries its own copy. Shared movie
// semantics are emulated by copying the existing record when a known id is
// added and by updating every copy together.
//
// Ids continue from the highest id ever issued, recorded in a hidden
// .<name>.seq.json file next to the store. A store without that file
// continues from the highest id it holds.
package flatfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/cryptox"
	"github.com/dmitrijs2005/movieweb/internal/filex"
	"github.com/dmitrijs2005/movieweb/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	path    string
	seqPath string

	// seq is only set inside update.
	seq *sequence

	hasher cryptox.Hasher
	now    func() time.Time
}

type Option func(*Store)

func WithHasher(h cryptox.Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open returns the store <dir>/<name>.json, creating the directory and an
// empty collection when they do not exist yet.
func Open(dir, name string, opts ...Option) (*Store, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: store name cannot be empty", common.ErrInvalidInput)
	}

	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, common.StorageFailure("create data directory", err)
	}

	s := &Store{
		path:    filepath.Join(abs, name+".json"),
		seqPath: filepath.Join(abs, "."+name+".seq.json"),
		hasher:  cryptox.DefaultHasher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	exists, err := filex.Exists(s.path)
	if err != nil {
		return nil, common.StorageFailure("stat store", err)
	}
	if !exists {
		if err := s.save(collection{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path is the location of the store file.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op: the store holds no open handles between calls.
func (s *Store) Close() error {
	return nil
}

func (s *Store) load() (collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, common.StorageFailure("read store", err)
	}

	var c collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, common.StorageFailure("decode store", err)
	}
	if c == nil {
		c = collection{}
	}
	return c, nil
}

func (s *Store) save(c collection) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return common.StorageFailure("encode store", err)
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o660); err != nil {
		return common.StorageFailure("write store", err)
	}
	return nil
}

func (s *Store) loadSequence() (*sequence, error) {
	data, err := os.ReadFile(s.seqPath)
	if errors.Is(err, os.ErrNotExist) {
		return &sequence{}, nil
	}
	if err != nil {
		return nil, common.StorageFailure("read id sequence", err)
	}

	q := &sequence{}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, common.StorageFailure("decode id sequence", err)
	}
	return q, nil
}

func (s *Store) saveSequence(q *sequence) error {
	data, err := json.Marshal(q)
	if err != nil {
		return common.StorageFailure("encode id sequence", err)
	}
	if err := filex.WriteFileAtomic(s.seqPath, data, 0o660); err != nil {
		return common.StorageFailure("write id sequence", err)
	}
	return nil
}

// view loads the collection for a read.
func (s *Store) view(ctx context.Context, fn func(c collection) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return err
	}
	return fn(c)
}

// update loads the collection, lets fn mutate it and rewrites the file.
// fn returns the collection to persist; nothing is written if fn fails.
func (s *Store) update(ctx context.Context, fn func(c collection) (collection, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return err
	}
	q, err := s.loadSequence()
	if err != nil {
		return err
	}
	s.seq = q
	defer func() { s.seq = nil }()

	c, err = fn(c)
	if err != nil {
		return err
	}
	// the mark goes first: a failed store write then only skips ids
	if q.dirty {
		if err := s.saveSequence(q); err != nil {
			return err
		}
	}
	return s.save(c)
}

func userNotFound(id int64) error {
	return fmt.Errorf("%w: user %d", common.ErrNotFound, id)
}

func movieNotFound(id string) error {
	return fmt.Errorf("%w: movie %s", common.ErrNotFound, id)
}
