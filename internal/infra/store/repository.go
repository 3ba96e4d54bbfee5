package store

import (
	"context"

	"participations-app/internal/domain/participations"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	// DefaultBatchSize bounds the number of ids bound into one IN clause.
	DefaultBatchSize = 500

	tableLookupValues     = "open_list_values"
	tableObservations     = "observations"
	tableObservationMedia = "observations_medias"
	tableMedia            = "medias"
)

// Repository reads participations and their related rows. It never writes.
type Repository struct {
	db             *gorm.DB
	batchSize      int
	maxConcurrency int
}

func NewRepository(db *gorm.DB, maxConcurrency int) *Repository {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Repository{db: db, batchSize: DefaultBatchSize, maxConcurrency: maxConcurrency}
}

// WithBatchSize returns a copy of the repository using n ids per IN clause.
func (r *Repository) WithBatchSize(n int) *Repository {
	cp := *r
	if n > 0 {
		cp.batchSize = n
	}
	return &cp
}

func (r *Repository) ListParticipations(ctx context.Context) ([]participations.Participation, error) {
	var rows []participations.Participation
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list participations")
	}
	return rows, nil
}

func (r *Repository) GetParticipation(ctx context.Context, id uint) (participations.Participation, error) {
	var row participations.Participation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, participations.ErrNotFound
	}
	if err != nil {
		return row, errors.Wrapf(err, "get participation %d", id)
	}
	return row, nil
}

func (r *Repository) LookupValues(ctx context.Context, ids []uint) ([]participations.LookupValue, error) {
	rows, err := r.findIn(ctx, tableLookupValues, "id", ids)
	if err != nil {
		return nil, err
	}
	out := make([]participations.LookupValue, 0, len(rows))
	for _, row := range rows {
		v, err := lookupValueFromRow(row)
		if err != nil {
			return nil, errors.Wrap(err, tableLookupValues)
		}
		out = append(out, v)
	}
	return out, nil
}

// Observations returns the observations of all given participations, ordered
// by id within each participation.
func (r *Repository) Observations(ctx context.Context, participationIDs []uint) ([]participations.Observation, error) {
	rows, err := r.findIn(ctx, tableObservations, "participation_id", participationIDs)
	if err != nil {
		return nil, err
	}
	out := make([]participations.Observation, 0, len(rows))
	for _, row := range rows {
		o, err := observationFromRow(row)
		if err != nil {
			return nil, errors.Wrap(err, tableObservations)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Repository) ObservationMedia(ctx context.Context, observationIDs []uint) ([]participations.ObservationMedia, error) {
	rows, err := r.findIn(ctx, tableObservationMedia, "observation_id", observationIDs)
	if err != nil {
		return nil, err
	}
	out := make([]participations.ObservationMedia, 0, len(rows))
	for _, row := range rows {
		l, err := observationMediaFromRow(row)
		if err != nil {
			return nil, errors.Wrap(err, tableObservationMedia)
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *Repository) Media(ctx context.Context, ids []uint) ([]participations.Media, error) {
	rows, err := r.findIn(ctx, tableMedia, "id", ids)
	if err != nil {
		return nil, err
	}
	out := make([]participations.Media, 0, len(rows))
	for _, row := range rows {
		m, err := mediaFromRow(row)
		if err != nil {
			return nil, errors.Wrap(err, tableMedia)
		}
		out = append(out, m)
	}
	return out, nil
}

// findIn selects every row of table whose column is in ids. Ids are
// de-duplicated and split into batches which are queried concurrently.
func (r *Repository) findIn(ctx context.Context, table, column string, ids []uint) ([]map[string]any, error) {
	batches := batch(unique(ids), r.batchSize)
	if len(batches) == 0 {
		return nil, nil
	}

	results := make([][]map[string]any, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)
	for i, ids := range batches {
		i, ids := i, ids
		g.Go(func() error {
			var rows []map[string]any
			err := r.db.WithContext(gctx).
				Table(table).
				Where(column+" IN ?", ids).
				Order("id ASC").
				Find(&rows).Error
			if err != nil {
				return errors.Wrapf(err, "query %s", table)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, rows := range results {
		for _, row := range rows {
			out = append(out, normalizeRow(row))
		}
	}
	return out, nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func batch(ids []uint, size int) [][]uint {
	var out [][]uint
	for len(ids) > 0 {
		n := min(size, len(ids))
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
