// Package journal persists tree change events, in order, on disk.  A
// Journal implements tree.EventSink so an authority can commit
// straight into it, and observers replay it through a Scanner.  Each
// journal belongs to exactly one tree identity; opening it with a
// different config refuses instead of mixing event streams.
package journal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	"github.com/mit-dci/cmtree/tree"
	"github.com/mit-dci/cmtree/wire"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	dbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// journalVersion is the meta record layout version.
const journalVersion = 1

// 'm' holds the single meta record.  'e' + 8 byte big endian seq holds
// one serialized wire.MsgChange per event.
var (
	metaKey     = []byte("m")
	eventPrefix = []byte("e")
)

// cmtree home directory
var defaultHomeDir = btcutil.AppDataDir("cmtree", false)

// DefaultPath is the journal directory used when the caller doesn't
// pick one.
func DefaultPath() string {
	return filepath.Join(defaultHomeDir, "journal")
}

// Journal is a durable ordered event log for one tree.  Appends must
// arrive in exact sequence order so a hole can never get written.
// Single writer, same as the tree it follows.
type Journal struct {
	lvdb    *leveldb.DB
	meta    []byte
	lastSeq uint64 // 0 until the first event lands
}

func eventKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = eventPrefix[0]
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

// metaBytes builds the identity record for a tree config: version,
// hasher id, depth, sentinel.  Everything that makes two event streams
// incompatible.
func metaBytes(cfg tree.Config) ([]byte, error) {
	if cfg.Depth < 1 || cfg.Depth > tree.MaxDepth {
		return nil, errBadConfig(fmt.Sprintf(
			"depth %d outside 1..%d", cfg.Depth, tree.MaxDepth))
	}
	name := cfg.Hasher
	if name == "" {
		name = tree.DefaultHasher
	}
	h, err := tree.LookupHasher(name)
	if err != nil {
		return nil, err
	}
	meta := make([]byte, 0, 35)
	meta = append(meta, journalVersion, h.ID(), cfg.Depth)
	meta = append(meta, cfg.EmptyLeaf[:]...)
	return meta, nil
}

// Open opens or creates the journal at path for the tree that cfg
// describes.  An existing journal is checked against cfg and refused
// with ErrWrongJournal if it was written for a different tree.
func Open(path string, cfg tree.Config) (*Journal, error) {
	meta, err := metaBytes(cfg)
	if err != nil {
		return nil, err
	}

	o := new(opt.Options)
	o.CompactionTableSizeMultiplier = 8
	lvdb, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %s", path, err)
	}

	j := &Journal{lvdb: lvdb, meta: meta}

	stored, err := lvdb.Get(metaKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
		// fresh journal, claim it
		if err := lvdb.Put(metaKey, meta, nil); err != nil {
			lvdb.Close()
			return nil, err
		}
	case err != nil:
		lvdb.Close()
		return nil, err
	default:
		if !bytes.Equal(stored, meta) {
			lvdb.Close()
			return nil, errWrongJournal(fmt.Sprintf(
				"meta %x, tree wants %x", stored, meta))
		}
	}

	if err := j.findLastSeq(); err != nil {
		lvdb.Close()
		return nil, err
	}
	log.Debugf("journal %s open at seq %d", path, j.lastSeq)
	return j, nil
}

// findLastSeq positions lastSeq off the newest event key on disk.
func (j *Journal) findLastSeq() error {
	iter := j.lvdb.NewIterator(dbutil.BytesPrefix(eventPrefix), nil)
	defer iter.Release()
	if !iter.Last() {
		return iter.Error()
	}
	key := iter.Key()
	if len(key) != 9 {
		return errJournalCorrupt(fmt.Sprintf("event key %x", key))
	}
	j.lastSeq = binary.BigEndian.Uint64(key[1:])
	return iter.Error()
}

// Append writes one event.  ev.Seq has to be exactly one past the
// newest journaled event; the first event is seq 1.
func (j *Journal) Append(ev tree.ChangeEvent) error {
	if ev.Seq != j.lastSeq+1 {
		return errJournalGap(ev.Seq, j.lastSeq+1)
	}
	m := wire.NewMsgChange(ev)
	var buf bytes.Buffer
	if err := m.Serialize(&buf); err != nil {
		return err
	}
	if err := j.lvdb.Put(eventKey(ev.Seq), buf.Bytes(), nil); err != nil {
		return err
	}
	j.lastSeq = ev.Seq
	log.Tracef("journaled seq %d leaf %d root %x",
		ev.Seq, ev.LeafIndex, ev.NewRoot.Prefix())
	return nil
}

// AppendBatch writes a run of events in one leveldb batch.  The run
// has to be internally contiguous and start right after the newest
// journaled event; nothing is written otherwise.
func (j *Journal) AppendBatch(evs []tree.ChangeEvent) error {
	if len(evs) == 0 {
		return nil
	}
	var batch leveldb.Batch
	var buf bytes.Buffer
	want := j.lastSeq + 1
	for _, ev := range evs {
		if ev.Seq != want {
			return errJournalGap(ev.Seq, want)
		}
		m := wire.NewMsgChange(ev)
		buf.Reset()
		if err := m.Serialize(&buf); err != nil {
			return err
		}
		batch.Put(eventKey(ev.Seq), buf.Bytes())
		want++
	}
	if err := j.lvdb.Write(&batch, nil); err != nil {
		return err
	}
	j.lastSeq = want - 1
	return nil
}

// Emit implements tree.EventSink, so a Journal can sit directly on a
// Tree as its sink.
func (j *Journal) Emit(ev tree.ChangeEvent) error {
	return j.Append(ev)
}

// Get reads one event back by sequence number.
func (j *Journal) Get(seq uint64) (tree.ChangeEvent, error) {
	var ev tree.ChangeEvent
	value, err := j.lvdb.Get(eventKey(seq), nil)
	if err == leveldb.ErrNotFound {
		return ev, errNoEvent(seq)
	}
	if err != nil {
		return ev, err
	}
	var m wire.MsgChange
	if err := m.Deserialize(bytes.NewReader(value)); err != nil {
		return ev, errJournalCorrupt(fmt.Sprintf("seq %d: %s", seq, err))
	}
	if m.Seq != seq {
		return ev, errJournalCorrupt(fmt.Sprintf(
			"key seq %d holds event seq %d", seq, m.Seq))
	}
	return m.Event(), nil
}

// Config rebuilds the tree config this journal is bound to from its
// meta record.  MaxChangeLog isn't part of journal identity, so it
// comes back zero, meaning the default.
func (j *Journal) Config() (tree.Config, error) {
	var cfg tree.Config
	if len(j.meta) != 35 || j.meta[0] != journalVersion {
		return cfg, errJournalCorrupt(fmt.Sprintf("meta %x", j.meta))
	}
	h, err := tree.HasherByID(j.meta[1])
	if err != nil {
		return cfg, err
	}
	cfg.Hasher = h.Name()
	cfg.Depth = j.meta[2]
	copy(cfg.EmptyLeaf[:], j.meta[3:])
	return cfg, nil
}

// LastSeq is the newest journaled sequence number, 0 when empty.
func (j *Journal) LastSeq() uint64 {
	return j.lastSeq
}

// Close flushes and closes the underlying db.
func (j *Journal) Close() error {
	return j.lvdb.Close()
}
