package embedding

import (
	"context"

	"participations-app/internal/domain/participations"
)

type LookupStore interface {
	LookupValues(ctx context.Context, ids []uint) ([]participations.LookupValue, error)
}

// LookupResolver replaces reference ids in payloads with open list values.
type LookupResolver struct {
	store LookupStore
}

func NewLookupResolver(store LookupStore) *LookupResolver {
	return &LookupResolver{store: store}
}

// Resolve resolves every non-empty reference field of the given payloads
// with a single set-based lookup. Resolved fields keep the order of their
// ids; ids without a matching row are dropped. Payloads without any ids do
// not cause a lookup.
func (r *LookupResolver) Resolve(ctx context.Context, payloads ...*participations.Payload) error {
	var ids []uint
	for _, p := range payloads {
		for _, field := range participations.ReferenceFields {
			ref, ok := p.Reference(field)
			if !ok {
				continue
			}
			for _, id := range ref.IDs {
				ids = append(ids, uint(id))
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	values, err := r.store.LookupValues(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uint]participations.LookupValue, len(values))
	for _, v := range values {
		byID[v.ID] = v
	}

	for _, p := range payloads {
		for _, field := range participations.ReferenceFields {
			ref, ok := p.Reference(field)
			if !ok || len(ref.IDs) == 0 {
				continue
			}
			resolved := make([]participations.LookupValue, 0, len(ref.IDs))
			for _, id := range ref.IDs {
				if v, ok := byID[uint(id)]; ok {
					resolved = append(resolved, v)
				}
			}
			p.Resolve(field, resolved)
		}
	}
	return nil
}
