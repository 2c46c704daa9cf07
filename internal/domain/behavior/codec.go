package behavior

import (
	"encoding/json"
	"fmt"
)

// DecodeUpdateData unmarshals the raw payload of an incoming update into
// the variant matching its declared type. Unknown types are rejected so the
// union stays closed at the wire boundary.
func DecodeUpdateData(t UpdateType, raw json.RawMessage) (UpdateData, error) {
	switch t {
	case UpdatePatternChange:
		var data PatternChangeData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		return data, nil
	case UpdateIntervention:
		var data InterventionUpdateData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		return data, nil
	case UpdateNewInteraction:
		var data InteractionData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		return data, nil
	case UpdateHealthScoreChange:
		var data HealthScoreData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		return data, nil
	case UpdateInitialSnapshot:
		var data SnapshotData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown update type %q", t)
	}
}
