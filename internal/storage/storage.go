package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Key prefixes
const (
	prefixPerft  = "perft/"
	prefixRating = "rating/"
	prefixMatch  = "match/"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Rating is the persisted Elo state of one engine.
type Rating struct {
	Name    string    `json:"name"`
	Elo     float64   `json:"elo"`
	Games   int       `json:"games"`
	Wins    int       `json:"wins"`
	Losses  int       `json:"losses"`
	Draws   int       `json:"draws"`
	Updated time.Time `json:"updated"`
}

// Score returns the fraction of points won, 0 with no games.
func (r Rating) Score() float64 {
	if r.Games == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Draws)) / float64(r.Games)
}

// MatchRecord is a finished match between two engines, results from the
// point of view of White (the first engine).
type MatchRecord struct {
	ID       string        `json:"id"`
	White    string        `json:"white"`
	Black    string        `json:"black"`
	Wins     int           `json:"wins"`
	Losses   int           `json:"losses"`
	Draws    int           `json:"draws"`
	Depth    int           `json:"depth,omitempty"`
	MoveTime time.Duration `json:"move_time,omitempty"`
	PGN      []string      `json:"pgn,omitempty"`
	PlayedAt time.Time     `json:"played_at"`
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the database in dir. Badger's own
// logging goes to logger, or nowhere when logger is nil.
func Open(dir string, logger *zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if logger != nil {
		opts.Logger = badgerLogger{l: logger.With().Str("component", "badger").Logger()}
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the database in DatabaseDir.
func OpenDefault(logger *zerolog.Logger) (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir, logger)
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func perftKey(fen string, depth int) []byte {
	return fmt.Appendf(nil, "%s%02d/%s", prefixPerft, depth, fen)
}

// LoadPerft returns a cached perft count.
func (s *Store) LoadPerft(fen string, depth int) (uint64, bool, error) {
	var nodes uint64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(fen, depth))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("storage: perft record of %d bytes", len(val))
			}
			nodes = binary.BigEndian.Uint64(val)
			found = true
			return nil
		})
	})
	return nodes, found, err
}

// StorePerft caches a perft count.
func (s *Store) StorePerft(fen string, depth int, nodes uint64) error {
	val := binary.BigEndian.AppendUint64(nil, nodes)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(fen, depth), val)
	})
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// scan decodes every value under prefix, in key order.
func scan[T any](s *Store, prefix string) ([]T, error) {
	var out []T
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var v T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("storage: decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// SaveRating stores r under its name.
func (s *Store) SaveRating(r Rating) error {
	if r.Name == "" {
		return errors.New("storage: rating without a name")
	}
	r.Updated = time.Now()
	return s.put(prefixRating+r.Name, r)
}

// LoadRating returns the rating of name, or ErrNotFound.
func (s *Store) LoadRating(name string) (Rating, error) {
	var r Rating
	err := s.get(prefixRating+name, &r)
	return r, err
}

// Ratings returns every stored rating, highest first.
func (s *Store) Ratings() ([]Rating, error) {
	rs, err := scan[Rating](s, prefixRating)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rs, func(a, b Rating) int {
		switch {
		case a.Elo > b.Elo:
			return -1
		case a.Elo < b.Elo:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rs, nil
}

// SaveMatch stores m, assigning an ID and timestamp when missing, and
// returns the ID.
func (s *Store) SaveMatch(m MatchRecord) (string, error) {
	if m.PlayedAt.IsZero() {
		m.PlayedAt = time.Now()
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("%020d", m.PlayedAt.UnixNano())
	}
	return m.ID, s.put(prefixMatch+m.ID, m)
}

// Matches returns every stored match, oldest first.
func (s *Store) Matches() ([]MatchRecord, error) {
	return scan[MatchRecord](s, prefixMatch)
}

// badgerLogger routes Badger's printf-style logging into zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Debug().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Trace().Msgf(strings.TrimSpace(f), v...) }
