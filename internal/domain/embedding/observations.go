package embedding

import (
	"context"

	"participations-app/internal/domain/participations"
)

type ObservationStore interface {
	Observations(ctx context.Context, participationIDs []uint) ([]participations.Observation, error)
}

// ObservationAssembler loads the observations of participations together
// with their media.
type ObservationAssembler struct {
	store ObservationStore
	media *MediaAssembler
}

func NewObservationAssembler(store ObservationStore, media *MediaAssembler) *ObservationAssembler {
	return &ObservationAssembler{store: store, media: media}
}

// Assemble returns the observations of each participation keyed by
// participation id, each carrying its media links.
func (a *ObservationAssembler) Assemble(ctx context.Context, participationIDs []uint) (map[uint][]participations.Observation, error) {
	out := make(map[uint][]participations.Observation, len(participationIDs))
	for _, id := range participationIDs {
		out[id] = []participations.Observation{}
	}
	if len(participationIDs) == 0 {
		return out, nil
	}

	observations, err := a.store.Observations(ctx, participationIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(observations))
	for _, o := range observations {
		ids = append(ids, o.ID)
	}
	links, err := a.media.Assemble(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, o := range observations {
		o.ObservationMedia = links[o.ID]
		out[o.ParticipationID] = append(out[o.ParticipationID], o)
	}
	return out, nil
}
