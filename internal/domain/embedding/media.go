package embedding

import (
	"context"

	"participations-app/internal/domain/participations"
)

type MediaStore interface {
	ObservationMedia(ctx context.Context, observationIDs []uint) ([]participations.ObservationMedia, error)
	Media(ctx context.Context, ids []uint) ([]participations.Media, error)
}

// MediaAssembler attaches media records to the media links of observations.
type MediaAssembler struct {
	store MediaStore
}

func NewMediaAssembler(store MediaStore) *MediaAssembler {
	return &MediaAssembler{store: store}
}

// Assemble returns the media links of each observation keyed by observation
// id. Every requested id has an entry, empty when it has no links. A link
// whose media id matches no record keeps a nil MediaRecord.
func (a *MediaAssembler) Assemble(ctx context.Context, observationIDs []uint) (map[uint][]participations.ObservationMedia, error) {
	out := make(map[uint][]participations.ObservationMedia, len(observationIDs))
	for _, id := range observationIDs {
		out[id] = []participations.ObservationMedia{}
	}
	if len(observationIDs) == 0 {
		return out, nil
	}

	links, err := a.store.ObservationMedia(ctx, observationIDs)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}

	mediaIDs := make([]uint, 0, len(links))
	for _, l := range links {
		mediaIDs = append(mediaIDs, l.MediaID)
	}
	records, err := a.store.Media(ctx, mediaIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]participations.Media, len(records))
	for _, m := range records {
		byID[m.ID] = m
	}

	for _, l := range links {
		if m, ok := byID[l.MediaID]; ok {
			l.MediaRecord = &m
		}
		out[l.ObservationID] = append(out[l.ObservationID], l)
	}
	return out, nil
}
