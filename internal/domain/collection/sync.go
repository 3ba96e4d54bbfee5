package collection

import (
	"context"
	"log/slog"
	"time"

	"participations-app/internal/domain/participations"
	"participations-app/internal/infra/telemetry"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("collection")

// Policy decides how an existing document is updated.
type Policy string

const (
	// PolicyReplace always issues createOrReplace.
	PolicyReplace Policy = "replace"
	// PolicyPatch creates missing documents and patches existing ones,
	// preserving fields this service does not manage.
	PolicyPatch Policy = "patch"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyReplace, PolicyPatch:
		return Policy(s), nil
	case "":
		return PolicyPatch, nil
	default:
		return "", errors.Errorf("unknown sync policy %q", s)
	}
}

const (
	OutcomeCreated  = "created"
	OutcomeReplaced = "replaced"
	OutcomePatched  = "patched"
	OutcomeFailed   = "failed"
)

type Source interface {
	ListParticipations(ctx context.Context) ([]participations.Participation, error)
}

type Embedder interface {
	EmbedAll(ctx context.Context, rows []participations.Participation) ([]participations.EmbeddedParticipation, error)
}

// DocumentStore is the subset of the content store client used by the sync.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string, out any) (bool, error)
	Create(ctx context.Context, doc any) (string, error)
	CreateOrReplace(ctx context.Context, doc any) (string, error)
	Patch(ctx context.Context, id string, set map[string]any) (string, error)
}

type SyncerConfig struct {
	Policy  Policy
	Options BuildOptions
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// Syncer pushes every participation to the content store as a collection
// item. It never deletes documents.
type Syncer struct {
	source   Source
	embedder Embedder
	docs     DocumentStore
	policy   Policy
	opts     BuildOptions
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

func NewSyncer(source Source, embedder Embedder, docs DocumentStore, cfg SyncerConfig) *Syncer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyPatch
	}
	return &Syncer{
		source:   source,
		embedder: embedder,
		docs:     docs,
		policy:   policy,
		opts:     cfg.Options,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Result reports what a run did. Participations holds every embedded
// participation, including those whose document failed.
type Result struct {
	Participations []participations.EmbeddedParticipation
	Created        int
	Replaced       int
	Patched        int
	Failed         int
}

// Run embeds all participations and upserts their documents. A failure to
// load or embed fails the run; a failure on one document is logged and the
// run continues with the next.
func (s *Syncer) Run(ctx context.Context) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "Syncer.Run")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveSyncRun(time.Since(start), err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	rows, err := s.source.ListParticipations(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "load participations")
	}
	embedded, err := s.embedder.EmbedAll(ctx, rows)
	if err != nil {
		return Result{}, errors.Wrap(err, "embed participations")
	}

	res.Participations = embedded
	for i := range embedded {
		outcome, err := s.syncOne(ctx, &embedded[i])
		s.metrics.ObserveDocument(outcome)
		switch outcome {
		case OutcomeCreated:
			res.Created++
		case OutcomeReplaced:
			res.Replaced++
		case OutcomePatched:
			res.Patched++
		default:
			res.Failed++
			s.logger.Error("failed to sync collection item",
				"participation_id", embedded[i].ID,
				"error", err,
			)
		}
	}

	span.SetAttributes(
		attribute.Int("created", res.Created),
		attribute.Int("replaced", res.Replaced),
		attribute.Int("patched", res.Patched),
		attribute.Int("failed", res.Failed),
	)
	s.logger.Info("collection sync finished",
		"participations", len(embedded),
		"created", res.Created,
		"replaced", res.Replaced,
		"patched", res.Patched,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *Syncer) syncOne(ctx context.Context, p *participations.EmbeddedParticipation) (outcome string, err error) {
	ctx, span := tracer.Start(ctx, "Syncer.syncOne",
		trace.WithAttributes(attribute.String("document.id", DocumentID(p.ID))),
	)
	defer func() {
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	doc, err := Build(p, s.opts)
	if err != nil {
		return OutcomeFailed, err
	}

	if s.policy == PolicyReplace {
		id, err := s.docs.CreateOrReplace(ctx, doc)
		if err != nil {
			return OutcomeFailed, err
		}
		s.logger.Info("document created or replaced", "id", id)
		return OutcomeReplaced, nil
	}

	exists, err := s.docs.GetDocument(ctx, doc.ID, nil)
	if err != nil {
		return OutcomeFailed, err
	}
	if !exists {
		id, err := s.docs.Create(ctx, doc)
		if err != nil {
			return OutcomeFailed, err
		}
		s.logger.Info("document created", "id", id)
		return OutcomeCreated, nil
	}

	fields, err := doc.Fields()
	if err != nil {
		return OutcomeFailed, errors.Wrapf(err, "encode document %s", doc.ID)
	}
	id, err := s.docs.Patch(ctx, doc.ID, fields)
	if err != nil {
		return OutcomeFailed, err
	}
	s.logger.Info("document patched", "id", id)
	return OutcomePatched, nil
}
