// Package pile resolves offsets against a byte mapping holding dumped values.
package pile

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

// Option configures the pile.
type Option func(p *Pile)

// WithID sets the identity of the pile. By default a random one is generated.
func WithID(id uuid.UUID) Option {
	return func(p *Pile) {
		p.id = id
	}
}

// WithLogger sets the logger used by the pile.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pile) {
		p.log = log
	}
}

type validatedKey struct {
	offset  uint64
	meta    pointee.Metadata
	pointee load.BlobValidator
}

// Pile is a read-only byte mapping with an identity. Values are validated on first access and validated
// offsets are remembered.
//
// Validation of the same pile must not run concurrently.
type Pile struct {
	id      uuid.UUID
	log     *zap.Logger
	mapping []byte

	mu        sync.Mutex
	validated map[validatedKey]struct{}
	added     []validatedKey
}

// New creates pile on top of the mapping. Mapping must not be modified afterwards.
func New(mapping []byte, opts ...Option) *Pile {
	p := &Pile{
		id:        uuid.New(),
		log:       zap.NewNop(),
		mapping:   mapping,
		validated: map[validatedKey]struct{}{},
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.With(zap.Stringer("pile", p.id))
	return p
}

// ID returns the identity of the pile.
func (p *Pile) ID() uuid.UUID {
	return p.id
}

// Len returns the length of the mapping.
func (p *Pile) Len() int {
	return len(p.mapping)
}

// Bytes returns the mapping.
func (p *Pile) Bytes() []byte {
	return p.mapping
}

// ValidatePtr validates the blob at offset o and returns the validator of its children.
// Nil is returned for offsets validated before.
func (p *Pile) ValidatePtr(o offset.Offset, meta pointee.Metadata, v load.BlobValidator) (load.ChildValidator, error) {
	key := validatedKey{offset: o.Get(), meta: meta, pointee: v}

	p.mu.Lock()
	_, exists := p.validated[key]
	p.mu.Unlock()
	if exists {
		return nil, nil
	}

	b, err := p.blob(o, meta, v)
	if err != nil {
		return nil, err
	}

	_, cv, err := v.ValidateBlob(b, meta)
	if err != nil {
		p.log.Warn("Invalid blob", zap.Stringer("offset", o), zap.Error(err))
		return nil, &DerefError{Pile: p.id, Offset: o, Err: err}
	}

	p.mu.Lock()
	p.validated[key] = struct{}{}
	p.added = append(p.added, key)
	p.mu.Unlock()

	return cv, nil
}

func (p *Pile) blob(o offset.Offset, meta pointee.Metadata, v load.BlobValidator) (blob.Blob, error) {
	start := o.Get()
	size := v.BlobSize(meta)
	length := uint64(len(p.mapping))
	extent := uint64(size)
	if e, ok := v.(load.Extent); ok {
		extent = max(extent, e.Extent(meta))
	}
	if start > length || extent > length-start {
		p.log.Warn("Offset out of bounds", zap.Stringer("offset", o), zap.Int("size", size))
		return blob.Blob{}, &OffsetError{Pile: p.id, Offset: o, Size: size, Len: len(p.mapping)}
	}
	return blob.New(p.mapping[start:start+uint64(size)], size), nil
}

// validate validates the value at offset o together with everything reachable from it. Offsets marked as
// validated during a failed run are forgotten, because their children were not checked completely.
func (p *Pile) validate(o offset.Offset, meta pointee.Metadata, v load.BlobValidator) error {
	p.mu.Lock()
	p.added = p.added[:0]
	p.mu.Unlock()

	cv, err := p.ValidatePtr(o, meta, v)
	if err == nil {
		err = load.Run(cv, p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		for _, key := range p.added {
			delete(p.validated, key)
		}
	}
	p.added = p.added[:0]
	return err
}
