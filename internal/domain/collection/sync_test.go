package collection

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"participations-app/internal/domain/participations"
	"participations-app/internal/infra/telemetry"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows []participations.Participation
	err  error
}

func (f *fakeSource) ListParticipations(ctx context.Context) ([]participations.Participation, error) {
	return f.rows, f.err
}

// payloadEmbedder decodes payloads without resolving anything.
type payloadEmbedder struct{}

func (payloadEmbedder) EmbedAll(ctx context.Context, rows []participations.Participation) ([]participations.EmbeddedParticipation, error) {
	out := make([]participations.EmbeddedParticipation, 0, len(rows))
	for _, row := range rows {
		p, err := participations.DecodePayload(row.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, participations.EmbeddedParticipation{Participation: row, Payload: p})
	}
	return out, nil
}

type fakeDocs struct {
	docs    map[string]map[string]any
	calls   []string
	failIDs map[string]bool
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]map[string]any{}, failIDs: map[string]bool{}}
}

func toMap(doc any) map[string]any {
	b, _ := json.Marshal(doc)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func (f *fakeDocs) GetDocument(ctx context.Context, id string, out any) (bool, error) {
	f.calls = append(f.calls, "get:"+id)
	_, ok := f.docs[id]
	return ok, nil
}

func (f *fakeDocs) Create(ctx context.Context, doc any) (string, error) {
	m := toMap(doc)
	id := m["_id"].(string)
	f.calls = append(f.calls, "create:"+id)
	if f.failIDs[id] {
		return "", errors.New("boom")
	}
	f.docs[id] = m
	return id, nil
}

func (f *fakeDocs) CreateOrReplace(ctx context.Context, doc any) (string, error) {
	m := toMap(doc)
	id := m["_id"].(string)
	f.calls = append(f.calls, "createOrReplace:"+id)
	if f.failIDs[id] {
		return "", errors.New("boom")
	}
	f.docs[id] = m
	return id, nil
}

func (f *fakeDocs) Patch(ctx context.Context, id string, set map[string]any) (string, error) {
	f.calls = append(f.calls, "patch:"+id)
	for k, v := range set {
		f.docs[id][k] = v
	}
	return id, nil
}

func newTestSyncer(src Source, docs DocumentStore, policy Policy, metrics *telemetry.Metrics) *Syncer {
	return NewSyncer(src, payloadEmbedder{}, docs, SyncerConfig{
		Policy:  policy,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics,
	})
}

func TestSyncPatchPolicyTwice(t *testing.T) {
	src := &fakeSource{rows: []participations.Participation{
		{ID: 1, UserID: 3, Data: `{"titles":{"en":"Red Fox"}}`},
	}}
	docs := newFakeDocs()
	s := newTestSyncer(src, docs, PolicyPatch, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, res.Participations, 1)

	// a field owned by editors in the content store
	docs.docs["collection-item-1"]["featured"] = true

	res, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Patched)

	assert.Equal(t, []string{
		"get:collection-item-1", "create:collection-item-1",
		"get:collection-item-1", "patch:collection-item-1",
	}, docs.calls)
	require.Len(t, docs.docs, 1)
	doc := docs.docs["collection-item-1"]
	assert.Equal(t, "collection-item-1", doc["_id"])
	assert.Equal(t, true, doc["featured"])
	assert.Equal(t, map[string]any{"_type": "slug", "current": "red-fox"}, doc["slug"])
}

func TestSyncReplacePolicy(t *testing.T) {
	src := &fakeSource{rows: []participations.Participation{
		{ID: 1, Data: `{"titles":{"en":"Red Fox"}}`},
		{ID: 2, Data: `{"titles":{"en":"Moss"}}`},
	}}
	docs := newFakeDocs()

	res, err := newTestSyncer(src, docs, PolicyReplace, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, []string{"createOrReplace:collection-item-1", "createOrReplace:collection-item-2"}, docs.calls)
}

func TestSyncContinuesAfterItemFailure(t *testing.T) {
	src := &fakeSource{rows: []participations.Participation{
		{ID: 1, Data: `{"titles":{"fr":"Renard"}}`},
		{ID: 2, Data: `{"titles":{"en":"Moss"}}`},
		{ID: 3, Data: `{"titles":{"en":"Lichen"}}`},
	}}
	docs := newFakeDocs()
	docs.failIDs["collection-item-2"] = true
	metrics := telemetry.NewMetrics()

	res, err := newTestSyncer(src, docs, PolicyPatch, metrics).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, res.Participations, 3)
	assert.Contains(t, docs.docs, "collection-item-3")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.SyncDocuments.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SyncDocuments.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SyncRuns.WithLabelValues("success")))
}

func TestSyncFailsWhenLoadingFails(t *testing.T) {
	docs := newFakeDocs()
	metrics := telemetry.NewMetrics()

	_, err := newTestSyncer(&fakeSource{err: errors.New("connection refused")}, docs, PolicyPatch, metrics).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, docs.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SyncRuns.WithLabelValues("failure")))

	src := &fakeSource{rows: []participations.Participation{{ID: 1, Data: `oops`}}}
	_, err = newTestSyncer(src, docs, PolicyPatch, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, participations.ErrMalformedPayload))
	assert.Empty(t, docs.calls)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPatch, p)

	p, err = ParsePolicy("replace")
	require.NoError(t, err)
	assert.Equal(t, PolicyReplace, p)

	_, err = ParsePolicy("merge")
	assert.Error(t, err)
}
