package grouplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fanzynoodle/slopmud/internal/idseq"
)

// Log is the append-only, fsync'd replicated group log file (spec.md §4.2.6,
// §6, §9 "replicated log integrity"). Index is dense from 1; a partial
// trailing line left by a crash mid-write is discarded on replay, not
// treated as corruption.
type Log struct {
	path     string
	file     *os.File
	store    *Store
	nextIdx  uint64
}

// Open opens (creating if absent) the log at path, replays every complete
// envelope into a fresh Store, and returns both. now is a clock function so
// callers can inject a fixed clock in tests.
func Open(path string, now func() int64) (*Log, *Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open group log %s: %w", path, err)
	}

	store := NewStore()
	lastIdx, err := replay(f, store)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("replay group log %s: %w", path, err)
	}

	l := &Log{path: path, file: f, store: store, nextIdx: lastIdx + 1}
	return l, store, nil
}

// replay reads every newline-delimited JSON envelope from f, applying each
// to store, and returns the highest index seen (0 if the log is empty). A
// line that does not parse (a crash mid-append) is discarded and cut from
// the file, together with anything after it, so the next append starts on
// a line of its own.
func replay(f *os.File, store *Store) (uint64, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return 0, err
	}

	var lastIdx uint64
	var goodEnd int64 // byte offset just past the last valid line
	torn := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			goodEnd++
			continue
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			// Partial trailing line from a crash mid-write; discard per
			// spec.md §9 and stop replay (nothing valid can follow it).
			torn = true
			break
		}
		store.Apply(env.Entry)
		lastIdx = env.Index
		goodEnd += int64(len(line)) + 1
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if torn {
		if err := f.Truncate(goodEnd); err != nil {
			return 0, err
		}
	}

	if _, err := f.Seek(0, 2); err != nil {
		return 0, err
	}
	return lastIdx, nil
}

// Append writes entry as the next dense-indexed envelope, applies it to the
// store, fsyncs, and returns the assigned index.
func (l *Log) Append(entry Entry, nowMs int64) (uint64, error) {
	idx := l.nextIdx
	env := Envelope{Index: idx, TSMs: nowMs, Entry: entry}
	b, err := env.marshal()
	if err != nil {
		return 0, err
	}
	b = append(b, '\n')

	if _, err := l.file.Write(b); err != nil {
		return 0, fmt.Errorf("append group log entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return 0, fmt.Errorf("fsync group log: %w", err)
	}

	l.store.Apply(entry)
	l.nextIdx++
	return idx, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// Bootstrap performs genesis bootstrap: ensures group 1 (admins) and one
// class group per name exist, and grants membership in group 1 to every
// bootstrap admin principal listed in config (spec.md §4.2.6 Genesis
// bootstrap).
func Bootstrap(l *Log, store *Store, classNames []string, bootstrapAdmins []string, nowMs int64) error {
	if _, ok := store.Group(1); !ok {
		if _, err := l.Append(Entry{Type: EntryGroupCreate, GroupID: 1, Kind: KindAdmin, Name: "admins"}, nowMs); err != nil {
			return err
		}
	}
	for i, name := range classNames {
		gid := idseq.GroupID(1000 + i)
		if _, ok := store.Group(gid); !ok {
			ge := Entry{Type: EntryGroupCreate, GroupID: gid, Kind: KindClass, Name: "class:" + name}
			if _, err := l.Append(ge, nowMs); err != nil {
				return err
			}
		}
	}
	for _, principal := range bootstrapAdmins {
		role := "admin"
		if _, err := l.Append(Entry{Type: EntryGroupMemberSet, GroupID: 1, Member: principal, Role: &role}, nowMs); err != nil {
			return err
		}
	}
	return nil
}
