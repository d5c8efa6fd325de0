// Package store keeps document updates in pebble, one merged update per
// document.
package store

import (
	"encoding/binary"
	"io"
	"log/slog"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/utils"
)

var ErrCorrupted = errors.New("octo: stored update is corrupted")
var ErrClosed = errors.New("octo: store is closed")

const trailerLen = 8

type Options struct {
	pebble.Options
	Logger utils.Logger
}

func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelWarn)
	}
	o.Merger = &pebble.Merger{
		Name:  "octo.update",
		Merge: merger,
	}
}

// Store is a pebble database of updates keyed by document id. Writes
// are pebble merges, so concurrent Puts never lose edits.
type Store struct {
	db   *pebble.DB
	log  utils.Logger
	opts Options
}

// DKey is the key of a document: 'D' then the id.
func DKey(doc string) []byte {
	return append([]byte{'D'}, doc...)
}

func DKeyDoc(key []byte) (string, bool) {
	if len(key) < 1 || key[0] != 'D' {
		return "", false
	}
	return string(key[1:]), true
}

func Open(dir string, opts Options) (*Store, error) {
	opts.SetDefaults()
	db, err := pebble.Open(dir, &opts.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dir)
	}
	return &Store{db: db, log: opts.Logger, opts: opts}, nil
}

func (s *Store) Database() *pebble.DB {
	return s.db
}

// Put merges the update into what is stored for the document.
func (s *Store) Put(doc string, update []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := octo.DecodeUpdate(update); err != nil {
		return errors.Wrap(err, "put")
	}
	err := s.db.Merge(DKey(doc), seal(update), pebble.Sync)
	return errors.Wrapf(err, "put %s", doc)
}

// Load returns the merged update of the document, nil if there is none.
func (s *Store) Load(doc string) ([]byte, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	val, closer, err := s.db.Get(DKey(doc))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", doc)
	}
	defer closer.Close()
	update, err := unseal(val)
	if err != nil {
		s.log.Error("stored update is broken", "doc", doc, "err", err)
		return nil, err
	}
	return slices.Clone(update), nil
}

// LoadDoc builds a Doc from the stored update.
func (s *Store) LoadDoc(doc string, opts octo.Options) (*octo.Doc, error) {
	update, err := s.Load(doc)
	if err != nil {
		return nil, err
	}
	if opts.GUID == "" {
		opts.GUID = doc
	}
	if update == nil {
		return octo.NewDoc(opts), nil
	}
	return octo.NewDocFromUpdate(update, opts)
}

// Persist stores every later update of the Doc under its GUID.
func (s *Store) Persist(d *octo.Doc) {
	d.AddHook("store", func(update []byte, origin string) error {
		return s.Put(d.GUID(), update)
	})
}

func (s *Store) Delete(doc string) error {
	if s.db == nil {
		return ErrClosed
	}
	return errors.Wrapf(s.db.Delete(DKey(doc), pebble.Sync), "delete %s", doc)
}

// Docs lists the stored document ids in key order.
func (s *Store) Docs() (docs []string, err error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'D'},
		UpperBound: []byte{'E'},
	})
	if err != nil {
		return nil, errors.Wrap(err, "docs")
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if doc, ok := DKeyDoc(it.Key()); ok {
			docs = append(docs, doc)
		}
	}
	return docs, errors.Wrap(it.Error(), "docs")
}

func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return errors.Wrap(err, "close")
}

func seal(update []byte) []byte {
	ret := make([]byte, 0, len(update)+trailerLen)
	ret = append(ret, update...)
	return binary.BigEndian.AppendUint64(ret, xxhash.Sum64(update))
}

func unseal(val []byte) ([]byte, error) {
	if len(val) < trailerLen {
		return nil, ErrCorrupted
	}
	update, trailer := val[:len(val)-trailerLen], val[len(val)-trailerLen:]
	if binary.BigEndian.Uint64(trailer) != xxhash.Sum64(update) {
		return nil, ErrCorrupted
	}
	return update, nil
}

// UpdateMergeAdaptor folds merge operands with octo.MergeUpdates.
type UpdateMergeAdaptor struct {
	old  bool
	vals [][]byte
}

func merger(key, value []byte) (pebble.ValueMerger, error) {
	a := &UpdateMergeAdaptor{}
	return a, a.MergeNewer(value)
}

func (a *UpdateMergeAdaptor) MergeNewer(value []byte) error {
	a.vals = append(a.vals, slices.Clone(value))
	return nil
}

func (a *UpdateMergeAdaptor) MergeOlder(value []byte) error {
	a.vals = append(a.vals, slices.Clone(value))
	a.old = true
	return nil
}

func (a *UpdateMergeAdaptor) Finish(includesBase bool) ([]byte, io.Closer, error) {
	if a.old {
		slices.Reverse(a.vals)
	}
	updates := make([][]byte, 0, len(a.vals))
	for _, val := range a.vals {
		update, err := unseal(val)
		if err != nil {
			return nil, nil, err
		}
		updates = append(updates, update)
	}
	merged, err := octo.MergeUpdates(updates...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "merge")
	}
	return seal(merged), nil, nil
}
