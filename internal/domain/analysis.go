package domain

import "encoding/json"

// Analysis is the structured analysis result for a description. The
// engine only inspects the anchoring flag; the rest of the document is
// carried opaquely and echoed back to the pricing endpoint.
type Analysis struct {
	NeedsAnchoring bool
	Fields         map[string]any
}

// UnmarshalJSON keeps every key of the analysis document while lifting
// the anchoring flag out for the stage controller.
func (a *Analysis) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	a.Fields = m
	if v, ok := m["necesita_anclaje_general"].(bool); ok {
		a.NeedsAnchoring = v
	}
	return nil
}

// MarshalJSON re-emits the full document, anchoring flag included.
func (a Analysis) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Fields)+1)
	for k, v := range a.Fields {
		m[k] = v
	}
	m["necesita_anclaje_general"] = a.NeedsAnchoring
	return json.Marshal(m)
}
