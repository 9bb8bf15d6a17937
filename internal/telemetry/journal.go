package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
)

// Entry is one periodic status summary recorded during a search, keyed by
// the session it belongs to and the move number being searched.
type Entry struct {
	SessionID string        `json:"session_id"`
	Move      int           `json:"move"`
	Elapsed   time.Duration `json:"elapsed"`
	Nodes     uint64        `json:"nodes"`
	NPS       uint64        `json:"nps"`
	Depth     uint64        `json:"depth"`
	Eval      float64       `json:"eval"`
	BestMove  string        `json:"best_move"`
	Recorded  time.Time     `json:"recorded"`
}

// Journal wraps an embedded key-value store holding a session's recorded
// status entries, adapted from hailam-chessplay's preferences/stats store
// onto per-move search telemetry instead of per-game win/loss records.
type Journal struct {
	db *badger.DB
}

// Open opens (creating if necessary) the journal database in the
// platform's data directory.
func Open() (*Journal, error) {
	dir, err := JournalDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// key derives a compact, fixed-width storage key from a session id and
// move number: the session id is hashed rather than stored verbatim in the
// key so keys stay a predictable size regardless of how a front-end names
// its sessions.
func key(sessionID string, move int) []byte {
	h := xxhash.Sum64String(sessionID)
	return []byte(fmt.Sprintf("session:%016x:move:%06d", h, move))
}

// Record persists one status entry, overwriting any prior entry recorded
// for the same session and move number.
func (j *Journal) Record(e Entry) error {
	e.Recorded = time.Now()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("telemetry: marshal entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.SessionID, e.Move), data)
	})
	if err != nil {
		return fmt.Errorf("telemetry: record entry: %w", err)
	}

	log.Printf("telemetry: recorded move %d for session %s: %s nodes in %s",
		e.Move, e.SessionID, humanize.Comma(int64(e.Nodes)), e.Elapsed.Round(time.Millisecond))
	return nil
}

// Load retrieves the entry recorded for a given session and move number.
// It returns (Entry{}, false, nil) if no entry was recorded.
func (j *Journal) Load(sessionID string, move int) (Entry, bool, error) {
	var e Entry
	found := false

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sessionID, move))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("telemetry: load entry: %w", err)
	}
	return e, found, nil
}

// Session returns every recorded entry for a session, ordered by move
// number, by scanning the key prefix derived from the session's hash.
func (j *Journal) Session(sessionID string) ([]Entry, error) {
	prefix := []byte(fmt.Sprintf("session:%016x:move:", xxhash.Sum64String(sessionID)))

	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var e Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: scan session: %w", err)
	}
	return entries, nil
}
