package models

import "encoding/json"

// UnmarshalJSON decodes the known metadata keys and keeps the rest in Extra.
func (m *PageMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.SourceURL = stringField(raw, "sourceURL")
	m.Title = stringField(raw, "title")
	m.Description = stringField(raw, "description")
	delete(raw, "sourceURL")
	delete(raw, "title")
	delete(raw, "description")
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// MarshalJSON writes the known keys followed by Extra.
func (m PageMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["sourceURL"] = m.SourceURL
	if m.Title != "" {
		out["title"] = m.Title
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	return json.Marshal(out)
}

func stringField(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
