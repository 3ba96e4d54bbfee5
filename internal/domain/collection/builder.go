package collection

import (
	"strconv"

	"participations-app/internal/domain/participations"

	"github.com/pkg/errors"
)

// ErrMalformedDocument is returned when a participation lacks what a
// collection item needs, currently its English title.
var ErrMalformedDocument = errors.New("malformed collection document")

type BuildOptions struct {
	// IncludeEvents copies the payload's events field into the document.
	IncludeEvents bool
}

// Build projects an embedded participation onto its collection item.
func Build(p *participations.EmbeddedParticipation, opts BuildOptions) (Document, error) {
	if p.Payload == nil {
		return Document{}, errors.Wrapf(ErrMalformedDocument, "participation %d has no payload", p.ID)
	}
	data := p.Payload

	title, ok := data.Title("en")
	if !ok {
		return Document{}, errors.Wrapf(ErrMalformedDocument, "participation %d has no english title", p.ID)
	}

	doc := Document{
		ID:                 DocumentID(p.ID),
		Type:               DocumentType,
		Title:              title,
		TitleFR:            data.Titles["fr"],
		TitleDE:            data.Titles["de"],
		StoryEN:            data.Story("en"),
		StoryFR:            data.Story("fr"),
		StoryDE:            data.Story("de"),
		Habitat:            data.FirstHabitat(),
		Location:           location(data.Location),
		RawMaterials:       referenceTitles(data, "rawMaterials"),
		ProcessedMaterials: referenceTitles(data, "processedMaterials"),
		Media:              MediaNames(p),
		Topics:             referenceTitles(data, "topics"),
		Emotions:           referenceTitles(data, "emotions"),
		Date:               p.CreatedAt,
		UploaderName:       strconv.FormatUint(uint64(p.UserID), 10),
		Slug:               Slug{Type: "slug", Current: MakeSlug(title)},
	}
	if opts.IncludeEvents {
		doc.Events = data.Events
	}
	return doc, nil
}

// MediaNames collects the names of all media records reachable from the
// participation's observations. Links without a record are skipped.
func MediaNames(p *participations.EmbeddedParticipation) []string {
	names := []string{}
	for _, o := range p.Observations {
		for _, l := range o.ObservationMedia {
			if l.MediaRecord != nil && l.MediaRecord.Name != "" {
				names = append(names, l.MediaRecord.Name)
			}
		}
	}
	return names
}

func referenceTitles(data *participations.Payload, field string) *[]string {
	titles, ok := data.ReferenceTitles(field)
	if !ok {
		return nil
	}
	return &titles
}

func location(v any) any {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok && s == "" {
		return ""
	}
	return v
}
