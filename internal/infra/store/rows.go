package store

import (
	"strconv"

	"participations-app/internal/domain/participations"

	"github.com/pkg/errors"
)

// Rows of open_list_values, observations, observations_medias and medias are
// scanned into maps so columns the service does not know about still reach
// the embedded output.

func lookupValueFromRow(row map[string]any) (participations.LookupValue, error) {
	id, err := uintColumn(row, "id")
	if err != nil {
		return participations.LookupValue{}, err
	}
	return participations.LookupValue{
		ID:         id,
		Title:      stringColumn(row, "title"),
		Attributes: row,
	}, nil
}

func mediaFromRow(row map[string]any) (participations.Media, error) {
	id, err := uintColumn(row, "id")
	if err != nil {
		return participations.Media{}, err
	}
	return participations.Media{
		ID:         id,
		Name:       stringColumn(row, "name"),
		Attributes: row,
	}, nil
}

func observationFromRow(row map[string]any) (participations.Observation, error) {
	id, err := uintColumn(row, "id")
	if err != nil {
		return participations.Observation{}, err
	}
	parent, err := uintColumn(row, "participation_id")
	if err != nil {
		return participations.Observation{}, err
	}
	return participations.Observation{
		ID:              id,
		ParticipationID: parent,
		Attributes:      row,
	}, nil
}

func observationMediaFromRow(row map[string]any) (participations.ObservationMedia, error) {
	id, err := uintColumn(row, "id")
	if err != nil {
		return participations.ObservationMedia{}, err
	}
	parent, err := uintColumn(row, "observation_id")
	if err != nil {
		return participations.ObservationMedia{}, err
	}
	// a link without a media reference simply resolves to nothing
	mediaID, _ := uintColumn(row, "media_id")
	return participations.ObservationMedia{
		ID:            id,
		ObservationID: parent,
		MediaID:       mediaID,
		Attributes:    row,
	}, nil
}

// normalizeRow turns driver byte slices into strings so they marshal as text.
func normalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}

func uintColumn(row map[string]any, column string) (uint, error) {
	switch v := row[column].(type) {
	case int64:
		if v >= 0 {
			return uint(v), nil
		}
	case int32:
		if v >= 0 {
			return uint(v), nil
		}
	case int:
		if v >= 0 {
			return uint(v), nil
		}
	case uint64:
		return uint(v), nil
	case uint32:
		return uint(v), nil
	case uint:
		return v, nil
	case float64:
		if v >= 0 {
			return uint(v), nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 0); err == nil {
			return uint(n), nil
		}
	case []byte:
		if n, err := strconv.ParseUint(string(v), 10, 0); err == nil {
			return uint(n), nil
		}
	}
	return 0, errors.Errorf("column %s: unexpected value %v (%T)", column, row[column], row[column])
}

func stringColumn(row map[string]any, column string) string {
	switch v := row[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
