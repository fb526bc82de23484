package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

const gridKeyPrefix = "grid/"

var (
	_ GridStore = (*BadgerStore)(nil)
	_ Inventory = (*BadgerStore)(nil)
)

// BadgerStore keeps grid snapshots in a badger database as zstd-compressed
// codec bytes under "grid/<name>".
type BadgerStore struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	log *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// badgerLogger routes badger's own logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// OpenBadger opens or creates a snapshot database at dir. An empty dir
// opens an in-memory database.
func OpenBadger(dir string) (*BadgerStore, error) {
	log := logger.Named("store.badger")

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = badgerLogger{log.WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &BadgerStore{db: db, enc: enc, dec: dec, log: log}, nil
}

// Save stores g under name, replacing any previous snapshot.
func (s *BadgerStore) Save(ctx context.Context, name string, g *grid.Grid) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	raw := grid.Encode(g)
	data := s.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(gridKeyPrefix+name), data)
	})
	if err != nil {
		return fmt.Errorf("saving grid %s: %w", name, err)
	}

	s.log.Info("grid saved",
		zap.String("name", name),
		zap.Int("cells", g.Len()),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("stored_bytes", len(data)),
	)
	return nil
}

// Load returns the snapshot stored under name.
func (s *BadgerStore) Load(ctx context.Context, name string) (*grid.Grid, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gridKeyPrefix + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading grid %s: %w", name, err)
	}

	raw, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing grid %s: %w", name, err)
	}
	g, err := grid.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding grid %s: %w", name, err)
	}
	return g, nil
}

// Delete removes the snapshot stored under name.
func (s *BadgerStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(gridKeyPrefix + name))
	})
}

// Names lists stored snapshot names, sorted.
func (s *BadgerStore) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(gridKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), gridKeyPrefix))
		}
		return nil
	})
	return names, err
}

// Close closes the database. It is safe to call more than once.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
