package participations

import (
	"encoding/json"
	"time"
)

// Participation is a raw row of the participations table. Data holds the
// JSON payload exactly as stored.
type Participation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `json:"user_id"`
	Data      string    `gorm:"type:text" json:"data"`
}

func (Participation) TableName() string { return "participations" }

// LookupValue is a row of open_list_values. Attributes carries every column
// of the row, including the ones mapped to fields.
type LookupValue struct {
	ID         uint
	Title      string
	Attributes map[string]any
}

func (v LookupValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(withColumns(v.Attributes, map[string]any{
		"id":    v.ID,
		"title": v.Title,
	}))
}

type Media struct {
	ID         uint
	Name       string
	Attributes map[string]any
}

func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(withColumns(m.Attributes, map[string]any{
		"id":   m.ID,
		"name": m.Name,
	}))
}

// ObservationMedia links an observation to a media record. MediaRecord is
// nil when no media row matches MediaID.
type ObservationMedia struct {
	ID            uint
	ObservationID uint
	MediaID       uint
	Attributes    map[string]any

	MediaRecord *Media
}

func (l ObservationMedia) MarshalJSON() ([]byte, error) {
	cols := map[string]any{
		"id":             l.ID,
		"observation_id": l.ObservationID,
		"media_id":       l.MediaID,
	}
	if l.MediaRecord != nil {
		cols["mediaRecord"] = l.MediaRecord
	}
	return json.Marshal(withColumns(l.Attributes, cols))
}

type Observation struct {
	ID              uint
	ParticipationID uint
	Attributes      map[string]any

	ObservationMedia []ObservationMedia
}

func (o Observation) MarshalJSON() ([]byte, error) {
	links := o.ObservationMedia
	if links == nil {
		links = []ObservationMedia{}
	}
	return json.Marshal(withColumns(o.Attributes, map[string]any{
		"id":               o.ID,
		"participation_id": o.ParticipationID,
		"observationMedia": links,
	}))
}

// EmbeddedParticipation is a participation with its payload decoded and
// resolved and its observation tree attached. It is never persisted.
type EmbeddedParticipation struct {
	Participation
	Payload      *Payload
	Observations []Observation
}

func (p EmbeddedParticipation) MarshalJSON() ([]byte, error) {
	observations := p.Observations
	if observations == nil {
		observations = []Observation{}
	}
	return json.Marshal(struct {
		ID           uint          `json:"id"`
		CreatedAt    time.Time     `json:"created_at"`
		UserID       uint          `json:"user_id"`
		Data         *Payload      `json:"data"`
		Observations []Observation `json:"observations"`
	}{
		ID:           p.ID,
		CreatedAt:    p.CreatedAt,
		UserID:       p.UserID,
		Data:         p.Payload,
		Observations: observations,
	})
}

func withColumns(attrs map[string]any, cols map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+len(cols))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range cols {
		out[k] = v
	}
	return out
}
