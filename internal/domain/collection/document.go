package collection

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	DocumentType = "collectionItem"
	idPrefix     = "collection-item-"
)

type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

// Document is the collection item stored in the content store for one
// participation. Title lists are nil when the source field is absent and
// are then left out of the document.
type Document struct {
	ID   string `json:"_id"`
	Type string `json:"_type"`

	Title   string `json:"title"`
	TitleFR string `json:"title_fr"`
	TitleDE string `json:"title_de"`
	StoryEN string `json:"story_en"`
	StoryFR string `json:"story_fr"`
	StoryDE string `json:"story_de"`

	Habitat  string `json:"habitat"`
	Location any    `json:"location"`

	RawMaterials       *[]string `json:"rawMaterials,omitempty"`
	ProcessedMaterials *[]string `json:"processedMaterials,omitempty"`
	Media              []string  `json:"media"`
	Topics             *[]string `json:"topics,omitempty"`
	Emotions           *[]string `json:"emotions,omitempty"`

	Date         time.Time       `json:"date"`
	UploaderName string          `json:"uploaderName"`
	Slug         Slug            `json:"slug"`
	Events       json.RawMessage `json:"events,omitempty"`
}

// DocumentID derives the content store id of a participation.
func DocumentID(participationID uint) string {
	return idPrefix + strconv.FormatUint(uint64(participationID), 10)
}

// Fields returns the fields this service manages, without _id and _type.
// It is the set applied when patching an existing document.
func (d Document) Fields() (map[string]any, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	delete(fields, "_type")
	return fields, nil
}
