package octo

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/utils"
)

// Origins passed to hooks.
const (
	OriginLocal  = "local"
	OriginRemote = "remote"
)

type Options struct {
	// ClientID identifies this replica; zero picks a random 32-bit one.
	ClientID uint64
	GUID     string
	// MaxPending bounds the items and delete ranges parked while waiting
	// for their dependencies.
	MaxPending      int
	NestedCacheSize int
	Logger          utils.Logger
}

func (o *Options) SetDefaults() {
	if o.ClientID == 0 {
		o.ClientID = uint64(rand.Uint32())
	}
	if o.GUID == "" {
		o.GUID = uuid.NewString()
	}
	if o.MaxPending == 0 {
		o.MaxPending = 1 << 20
	}
	if o.NestedCacheSize == 0 {
		o.NestedCacheSize = 1 << 10
	}
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelWarn)
	}
}

// Hook sees every committed transaction and every applied update.
// A hook returning an error is removed.
type Hook func(update []byte, origin string) error

/*
Doc owns everything: the block store, the root branches, the queues of
items and deletes waiting for their dependencies. Shared types handed
out by GetArray, GetMap and GetText only keep a weak reference to it.
A Doc is not safe for concurrent use; one transaction at a time.
*/
type Doc struct {
	opts     Options
	clientID uint64
	guid     string
	log      utils.Logger

	store          *BlockStore
	roots          map[string]*branch
	nested         *lru.Cache[ID, *branch]
	pending        pendingQueue
	pendingDeletes DeleteSet
	missing        []ID

	txn       *Txn
	hooks     *xsync.MapOf[string, Hook]
	destroyed bool
}

func NewDoc(opts Options) *Doc {
	opts.SetDefaults()
	nested, _ := lru.New[ID, *branch](opts.NestedCacheSize)
	d := &Doc{
		opts:           opts,
		clientID:       opts.ClientID,
		guid:           opts.GUID,
		log:            opts.Logger,
		store:          NewBlockStore(),
		roots:          make(map[string]*branch),
		nested:         nested,
		pending:        make(pendingQueue),
		pendingDeletes: make(DeleteSet),
		hooks:          xsync.NewMapOf[string, Hook](),
	}
	docsOpen.Inc()
	return d
}

// NewDocFromUpdate creates a Doc holding the state of the update.
func NewDocFromUpdate(update []byte, opts Options) (*Doc, error) {
	d := NewDoc(opts)
	if err := d.ApplyUpdate(update); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *Doc) ClientID() uint64 {
	return d.clientID
}

func (d *Doc) GUID() string {
	return d.guid
}

func (d *Doc) Store() *BlockStore {
	return d.store
}

// Begin opens the transaction; there is at most one open per Doc.
func (d *Doc) Begin() (*Txn, error) {
	return d.begin(OriginLocal, true)
}

// BeginFrom opens a local transaction hooks will see under the origin.
func (d *Doc) BeginFrom(origin string) (*Txn, error) {
	return d.begin(origin, true)
}

func (d *Doc) begin(origin string, local bool) (*Txn, error) {
	if d.destroyed {
		return nil, octo_errors.ErrDocDestroyed
	}
	if d.txn != nil {
		return nil, octo_errors.ErrTransactionOpen
	}
	d.txn = &Txn{
		doc:     d,
		state:   TxnOpen,
		local:   local,
		origin:  origin,
		before:  d.store.StateVector(),
		deletes: make(DeleteSet),
	}
	return d.txn, nil
}

// Transact runs fn in a transaction, commits if fn succeeds and aborts
// otherwise.
func (d *Doc) Transact(fn func(txn *Txn) error) ([]byte, error) {
	txn, err := d.Begin()
	if err != nil {
		return nil, err
	}
	if err = fn(txn); err != nil {
		if txn.state == TxnOpen {
			_ = txn.Abort()
		}
		return nil, err
	}
	return txn.Commit()
}

func (d *Doc) GetArray(name string) (*Array, error) {
	s, err := d.get(name, KindArray)
	if err != nil {
		return nil, err
	}
	return s.(*Array), nil
}

func (d *Doc) GetMap(name string) (*Map, error) {
	s, err := d.get(name, KindMap)
	if err != nil {
		return nil, err
	}
	return s.(*Map), nil
}

func (d *Doc) GetText(name string) (*Text, error) {
	s, err := d.get(name, KindText)
	if err != nil {
		return nil, err
	}
	return s.(*Text), nil
}

func (d *Doc) get(name string, kind TypeKind) (Shared, error) {
	if d.destroyed {
		return nil, octo_errors.ErrDocDestroyed
	}
	b := d.root(name, kind)
	if b.kind != kind {
		return nil, fmt.Errorf("%w: %q is %s, not %s", octo_errors.ErrTypeMismatch, name, b.kind, kind)
	}
	return makeShared(d, kind, b.ref), nil
}

// root finds or creates a root branch. Roots first seen in remote
// updates have no kind until a local Get names one.
func (d *Doc) root(name string, kind TypeKind) *branch {
	b, ok := d.roots[name]
	if !ok {
		b = newBranch(kind, ParentRef{Root: true, Name: name}, nil)
		d.roots[name] = b
	} else if b.kind == kindUnknown {
		b.kind = kind
	}
	return b
}

// Roots lists the root names, sorted.
func (d *Doc) Roots() []string {
	names := make([]string, 0, len(d.roots))
	for name := range d.roots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RootKind tells the kind a root was used as, if any.
func (d *Doc) RootKind(name string) (TypeKind, bool) {
	b, ok := d.roots[name]
	if !ok || b.kind == kindUnknown {
		return kindUnknown, false
	}
	return b.kind, true
}

// Root returns a handle to an existing root. A root only seen in remote
// updates gets the kind its items suggest, without being fixed to it.
func (d *Doc) Root(name string) (Shared, error) {
	if d.destroyed {
		return nil, octo_errors.ErrDocDestroyed
	}
	b, ok := d.roots[name]
	if !ok {
		return nil, fmt.Errorf("%w: no root %q", octo_errors.ErrHandleInvalid, name)
	}
	kind := b.kind
	if kind == kindUnknown {
		kind = b.guessKind()
	}
	return makeShared(d, kind, b.ref), nil
}

func (b *branch) guessKind() TypeKind {
	if len(b.entries) > 0 {
		return KindMap
	}
	for n := b.start; n != nil; n = n.right {
		if n.Content.Tag == ContentString {
			return KindText
		}
	}
	return KindArray
}

func (d *Doc) branchOf(ref ParentRef) (*branch, error) {
	if ref.Root {
		b, ok := d.roots[ref.Name]
		if !ok {
			return nil, octo_errors.ErrHandleInvalid
		}
		return b, nil
	}
	if b, ok := d.nested.Get(ref.ID); ok {
		return b, nil
	}
	it, ok := d.store.Get(ref.ID)
	if !ok || it.ID != ref.ID || it.Content.branch == nil {
		return nil, fmt.Errorf("%w: no type at %s", octo_errors.ErrHandleInvalid, ref.ID)
	}
	d.nested.Add(ref.ID, it.Content.branch)
	return it.Content.branch, nil
}

// Items lists the records of a root in causal order, tombstones included;
// sequence first, then map entries by key.
func (d *Doc) Items(name string) []*Item {
	b, ok := d.roots[name]
	if !ok {
		return nil
	}
	return b.items()
}

func (b *branch) items() (ret []*Item) {
	for n := b.start; n != nil; n = n.right {
		ret = append(ret, n)
	}
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		n := b.entries[k]
		for n.left != nil {
			n = n.left
		}
		for ; n != nil; n = n.right {
			ret = append(ret, n)
		}
	}
	return
}

func (d *Doc) StateVector() StateVector {
	return d.store.StateVector()
}

// PendingLen counts parked items and delete ranges.
func (d *Doc) PendingLen() int {
	return d.pending.Len() + d.pendingDeletes.Len()
}

// Missing lists the ids the parked items wait for.
func (d *Doc) Missing() []ID {
	return slices.Clone(d.missing)
}

func (d *Doc) AddHook(name string, hook Hook) {
	d.hooks.Store(name, hook)
}

func (d *Doc) RemoveHook(name string) {
	d.hooks.Delete(name)
}

func (d *Doc) fire(update []byte, origin string) {
	d.hooks.Range(func(name string, hook Hook) bool {
		if err := hook(update, origin); err != nil {
			d.log.Warn("hook failed, removing", "hook", name, "err", err)
			d.hooks.Delete(name)
		}
		return true
	})
}

// Destroy invalidates the Doc and every handle to it.
func (d *Doc) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	if d.txn != nil {
		d.txn.state = TxnClosed
		d.txn = nil
	}
	d.hooks.Clear()
	d.nested.Purge()
	d.roots = nil
	docsOpen.Dec()
}

func (d *Doc) Destroyed() bool {
	return d.destroyed
}
