// Package labs holds the research-lab records and the in-memory dataset
// they are served from.
package labs

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownProfessor is the sentinel some dataset rows carry instead of a name.
const UnknownProfessor = "Unknown"

// Lab is one entry in the research-lab directory. Every field may be empty.
type Lab struct {
	Name           string `json:"name"`
	Professor      string `json:"professor"`
	ProfessorEmail string `json:"professor_email,omitempty"`
	School         string `json:"school"`
	Department     string `json:"department,omitempty"`
	URL            string `json:"url,omitempty"`
	Description    string `json:"description"`

	// Index is the record's position in the loaded dataset. It is the
	// correlation key cards carry back to the full record.
	Index int `json:"-"`
}

// HasProfessor reports whether the record names a real professor.
func (l Lab) HasProfessor() bool {
	p := strings.TrimSpace(l.Professor)
	return p != "" && p != UnknownProfessor
}

// UnmarshalJSON decodes a lab leniently: missing, null or non-string fields
// become empty strings instead of failing the whole dataset.
func (l *Lab) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Lab{
		Name:           stringField(raw, "name"),
		Professor:      stringField(raw, "professor"),
		ProfessorEmail: stringField(raw, "professor_email"),
		School:         stringField(raw, "school"),
		Department:     stringField(raw, "department"),
		URL:            stringField(raw, "url"),
		Description:    stringField(raw, "description"),
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
