package provider

import (
	"context"
	"fmt"

	"github.com/soochol/sharemenu/internal/uti"
)

// Representation is one registered form of an attachment.
type Representation struct {
	TypeIdentifier string
	Payload        any
}

// Static is a Provider over a fixed list of in-memory representations.
// Conformance is decided by a type registry, so a public.png representation
// answers for public.image and public.data as well.
type Static struct {
	types *uti.Registry
	reps  []Representation
}

// NewStatic returns a provider over reps. A nil registry means uti.Default().
func NewStatic(types *uti.Registry, reps ...Representation) *Static {
	if types == nil {
		types = uti.Default()
	}
	return &Static{types: types, reps: reps}
}

func (s *Static) HasItemConformingTo(typeID string) bool {
	_, ok := s.find(typeID)
	return ok
}

// LoadItem returns the payload of the first representation conforming to
// typeID.
func (s *Static) LoadItem(ctx context.Context, typeID string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := s.find(typeID)
	if !ok {
		return nil, fmt.Errorf("load %s: %w", typeID, ErrNotRegistered)
	}
	return r.Payload, nil
}

func (s *Static) find(typeID string) (Representation, bool) {
	for _, r := range s.reps {
		if s.types.ConformsTo(r.TypeIdentifier, typeID) {
			return r, true
		}
	}
	return Representation{}, false
}
