package command

import "encoding/json"

// decodeInto round-trips a raw args map through JSON into target's typed
// struct. Every command arg struct already carries `json` tags for wire
// compatibility, so this reuses them rather than introducing a second,
// map-specific tag vocabulary.
func decodeInto(raw map[string]any, target any) error {
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
