package participations

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ReferenceFields are the payload keys holding open_list_values ids, in
// resolution order.
var ReferenceFields = []string{"topics", "rawMaterials", "processedMaterials", "practices", "emotions"}

// LookupID accepts both JSON numbers and numeric strings.
type LookupID uint

func (id *LookupID) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return errors.Errorf("invalid lookup id %s", b)
	}
	*id = LookupID(n)
	return nil
}

// Reference is one reference field of a payload. Values is only meaningful
// once the field has been resolved.
type Reference struct {
	IDs    []LookupID
	Values []LookupValue

	resolved bool
}

func (r *Reference) Resolved() bool { return r.resolved }

// Payload is the decoded data column of a participation. Keys this package
// does not model are kept verbatim and written back on marshal.
type Payload struct {
	Titles       map[string]string
	CleanStories map[string]string
	Habitats     []string
	Location     any
	Events       json.RawMessage

	refs map[string]*Reference
	raw  map[string]json.RawMessage
}

// DecodePayload parses the stored JSON text of a participation.
func DecodePayload(data string) (*Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	if raw == nil {
		return nil, errors.Wrap(ErrMalformedPayload, "payload is null")
	}

	p := &Payload{raw: raw, refs: make(map[string]*Reference, len(ReferenceFields))}
	if err := decodeField(raw, "titles", &p.Titles); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "cleanStories", &p.CleanStories); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "habitats", &p.Habitats); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "location", &p.Location); err != nil {
		return nil, err
	}
	if v, ok := raw["events"]; ok && !isNull(v) {
		p.Events = v
	}

	for _, field := range ReferenceFields {
		var ids []LookupID
		if err := decodeField(raw, field, &ids); err != nil {
			return nil, err
		}
		if v, ok := raw[field]; ok && !isNull(v) {
			p.refs[field] = &Reference{IDs: ids}
		}
	}
	return p, nil
}

// Reference returns the named reference field, or false when the payload
// does not carry it.
func (p *Payload) Reference(field string) (*Reference, bool) {
	ref, ok := p.refs[field]
	return ref, ok
}

// Resolve replaces the ids of a reference field with lookup records. Fields
// the payload does not carry are ignored.
func (p *Payload) Resolve(field string, values []LookupValue) {
	ref, ok := p.refs[field]
	if !ok {
		return
	}
	if values == nil {
		values = []LookupValue{}
	}
	ref.Values = values
	ref.resolved = true
}

// ReferenceTitles returns the titles of a resolved reference field. The
// boolean is false when the field is absent from the payload.
func (p *Payload) ReferenceTitles(field string) ([]string, bool) {
	ref, ok := p.refs[field]
	if !ok {
		return nil, false
	}
	titles := make([]string, 0, len(ref.Values))
	for _, v := range ref.Values {
		titles = append(titles, v.Title)
	}
	return titles, true
}

func (p *Payload) Title(lang string) (string, bool) {
	v, ok := p.Titles[lang]
	return v, ok
}

func (p *Payload) Story(lang string) string {
	return p.CleanStories[lang]
}

func (p *Payload) FirstHabitat() string {
	if len(p.Habitats) == 0 {
		return ""
	}
	return p.Habitats[0]
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.raw))
	for k, v := range p.raw {
		out[k] = v
	}
	for field, ref := range p.refs {
		if !ref.resolved {
			continue
		}
		b, err := json.Marshal(ref.Values)
		if err != nil {
			return nil, err
		}
		out[field] = b
	}
	return json.Marshal(out)
}

func decodeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return errors.Wrapf(ErrMalformedPayload, "%s: %v", key, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
