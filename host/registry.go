// Package host is the boundary towards a calling runtime: documents are
// handed out as opaque reference-counted handles, errors are reduced to
// a few kinds, and the ingestion collaborators are plain interfaces.
package host

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/octo_errors"
)

type Handle = uuid.UUID

type entry struct {
	doc  *octo.Doc
	refs atomic.Int64
}

// Registry owns the documents handed out to the host. A document lives
// until its last handle reference is released; after that the handle
// is invalid, whatever the host's collector does with its copy.
type Registry struct {
	docs *xsync.MapOf[Handle, *entry]
	opts octo.Options
}

// NewRegistry makes a registry; opts are the defaults for new documents.
func NewRegistry(opts octo.Options) *Registry {
	return &Registry{
		docs: xsync.NewMapOf[Handle, *entry](),
		opts: opts,
	}
}

// Open creates an empty document, or one holding the update, with one
// reference.
func (r *Registry) Open(update []byte) (Handle, error) {
	h, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	opts := r.opts
	opts.GUID = h.String()
	var doc *octo.Doc
	if len(update) == 0 {
		doc = octo.NewDoc(opts)
	} else if doc, err = octo.NewDocFromUpdate(update, opts); err != nil {
		return uuid.Nil, err
	}
	e := &entry{doc: doc}
	e.refs.Store(1)
	r.docs.Store(h, e)
	return h, nil
}

func (r *Registry) Retain(h Handle) error {
	e, ok := r.docs.Load(h)
	if !ok || e.refs.Add(1) <= 1 {
		return octo_errors.ErrHandleInvalid
	}
	return nil
}

// Release drops a reference; the last one destroys the document.
func (r *Registry) Release(h Handle) error {
	e, ok := r.docs.Load(h)
	if !ok {
		return octo_errors.ErrHandleInvalid
	}
	switch n := e.refs.Add(-1); {
	case n == 0:
		r.docs.Delete(h)
		e.doc.Destroy()
	case n < 0:
		return octo_errors.ErrHandleInvalid
	}
	return nil
}

func (r *Registry) Doc(h Handle) (*octo.Doc, error) {
	e, ok := r.docs.Load(h)
	if !ok || e.refs.Load() <= 0 || e.doc.Destroyed() {
		return nil, octo_errors.ErrHandleInvalid
	}
	return e.doc, nil
}

// Len is the number of live documents.
func (r *Registry) Len() int {
	return r.docs.Size()
}

// Close destroys every document.
func (r *Registry) Close() {
	r.docs.Range(func(h Handle, e *entry) bool {
		r.docs.Delete(h)
		e.doc.Destroy()
		return true
	})
}
