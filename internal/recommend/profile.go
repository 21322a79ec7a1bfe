package recommend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Profile is the student data submitted with the detailed analysis form
// and reused when drafting outreach emails.
type Profile struct {
	Name     string   `json:"name"`
	Academic Academic `json:"academic"`
	Goals    Goals    `json:"goals"`
}

type Academic struct {
	Major string     `json:"major"`
	GPA   FlexString `json:"gpa"`
	Year  FlexString `json:"year"`
}

type Goals struct {
	CareerGoals StringList `json:"careerGoals"`
	Interests   StringList `json:"interests"`
}

// FlexString decodes from a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(scalarString(v)))
	return nil
}

// StringList decodes from a JSON array or a comma-separated string.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if str, ok := v.(string); ok {
		*s = SplitList(str)
		return nil
	}
	*s = stringList(v)
	return nil
}

// SplitList splits comma or newline separated input, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseProfile decodes the student_data JSON field.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("invalid JSON in student_data: %w", err)
	}
	return p, nil
}

// ValidationError lists required fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "please fill in: " + strings.Join(e.Missing, ", ")
}

// Validate checks the fields the analysis form requires. With a transcript
// attached every field is optional.
func (p Profile) Validate(hasTranscript bool) error {
	if hasTranscript {
		return nil
	}
	var missing []string
	for _, f := range []struct{ label, value string }{
		{"name", p.Name},
		{"major", p.Academic.Major},
		{"GPA", string(p.Academic.GPA)},
		{"year", string(p.Academic.Year)},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.label)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// GPAValue returns the GPA as a number when it parses as one.
func (p Profile) GPAValue() (float64, bool) {
	f, err := strconv.ParseFloat(string(p.Academic.GPA), 64)
	return f, err == nil
}
