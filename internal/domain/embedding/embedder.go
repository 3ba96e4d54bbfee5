// Package embedding builds the denormalized participation tree: payload
// references resolved to open list values, observations with their media
// links, and each link with its media record.
package embedding

import (
	"context"

	"participations-app/internal/domain/participations"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("embedding")

// Store is everything the embedder reads.
type Store interface {
	LookupStore
	ObservationStore
	MediaStore
}

type Embedder struct {
	lookups      *LookupResolver
	observations *ObservationAssembler
}

func New(store Store) *Embedder {
	return &Embedder{
		lookups:      NewLookupResolver(store),
		observations: NewObservationAssembler(store, NewMediaAssembler(store)),
	}
}

func (e *Embedder) Embed(ctx context.Context, row participations.Participation) (*participations.EmbeddedParticipation, error) {
	out, err := e.EmbedAll(ctx, []participations.Participation{row})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// EmbedAll embeds rows and returns them in input order. It fails as a whole
// when any payload is malformed or any query fails.
func (e *Embedder) EmbedAll(ctx context.Context, rows []participations.Participation) ([]participations.EmbeddedParticipation, error) {
	ctx, span := tracer.Start(ctx, "Embedder.EmbedAll")
	defer span.End()
	span.SetAttributes(attribute.Int("participations", len(rows)))

	payloads := make([]*participations.Payload, len(rows))
	ids := make([]uint, len(rows))
	for i, row := range rows {
		p, err := participations.DecodePayload(row.Data)
		if err != nil {
			span.RecordError(err)
			return nil, errors.Wrapf(err, "participation %d", row.ID)
		}
		payloads[i] = p
		ids[i] = row.ID
	}

	var observations map[uint][]participations.Observation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.lookups.Resolve(gctx, payloads...)
	})
	g.Go(func() error {
		var err error
		observations, err = e.observations.Assemble(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "embed participations")
	}

	out := make([]participations.EmbeddedParticipation, len(rows))
	for i, row := range rows {
		out[i] = participations.EmbeddedParticipation{
			Participation: row,
			Payload:       payloads[i],
			Observations:  observations[row.ID],
		}
	}
	return out, nil
}
