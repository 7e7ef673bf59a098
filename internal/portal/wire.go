package portal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// envelopeKey nests the payload on deployments that wrap their responses.
const envelopeKey = "d"

// Sentinel credentials for discovery probes.
const probeUser = "__regsync_probe__"

type loginRequest struct {
	Username string `json:"USme"`
	Password string `json:"PPPWZ"`
}

type classListRequest struct {
	UserID     string `json:"userId"`
	Auth       string `json:"auth"`
	UserRoleID string `json:"UserRoleId"`
	SchoolID   string `json:"SchoolId"`
	TeacherID  string `json:"DeptInsId"`
}

type absenceDetailRequest struct {
	UserID     string `json:"userId"`
	Auth       string `json:"auth"`
	UserRoleID string `json:"UserRoleId"`
	SchoolID   string `json:"SchoolId"`
	TeacherID  string `json:"DepInsId"`
	GradeID    string `json:"GradeId"`
	ClassID    string `json:"ClassId"`
	StudentNo  string `json:"StudentSchoolNo"`
	StartDate  string `json:"StartDate"`
	EndDate    string `json:"EndDate"`
}

type absenceSubmitRequest struct {
	UserID     string        `json:"userId"`
	Auth       string        `json:"auth"`
	SchoolID   string        `json:"SchoolId"`
	GradeID    string        `json:"GradeId"`
	ClassID    string        `json:"ClassId"`
	StartDate  string        `json:"StartDate"`
	UserRoleID string        `json:"UserRoleId"`
	Details    []absenceWire `json:"StdsAbsDetails"`
}

type absenceWire struct {
	StudentID   string `json:"StudentId"`
	AbsenceType int    `json:"AbsenceType"`
	ReasonID    *int   `json:"ReasonId,omitempty"`
	Notes       string `json:"Notes,omitempty"`
}

type gradeSubmitRequest struct {
	UserID        string      `json:"userId"`
	Auth          string      `json:"auth"`
	SchoolID      string      `json:"SchoolId"`
	UserRoleID    string      `json:"UserRoleId"`
	ClassID       string      `json:"ClassId"`
	GradeID       string      `json:"GradeId"`
	TermID        string      `json:"TermId"`
	SubjectID     string      `json:"SubjectId"`
	ExamID        string      `json:"ExamId"`
	EduSysID      string      `json:"EduSysId"`
	StageID       string      `json:"StageId"`
	ExamGradeType int         `json:"ExamGradeType"`
	Details       []gradeWire `json:"StdsGradeDetails"`
}

type gradeWire struct {
	StudentID string `json:"StudentId"`
	MarkValue string `json:"MarkValue"`
	IsAbsent  *bool  `json:"IsAbsent,omitempty"`
	Notes     string `json:"Notes,omitempty"`
}

func toAbsenceWire(records []AbsenceRecord) []absenceWire {
	out := make([]absenceWire, len(records))
	for i, r := range records {
		out[i] = absenceWire{
			StudentID:   strings.TrimSpace(r.StudentID),
			AbsenceType: int(r.Type),
			ReasonID:    r.ReasonID,
			Notes:       strings.TrimSpace(r.Notes),
		}
	}
	return out
}

func toGradeWire(records []GradeRecord) []gradeWire {
	out := make([]gradeWire, len(records))
	for i, r := range records {
		out[i] = gradeWire{
			StudentID: strings.TrimSpace(r.StudentID),
			MarkValue: strings.TrimSpace(r.MarkValue),
			IsAbsent:  r.IsAbsent,
			Notes:     strings.TrimSpace(r.Notes),
		}
	}
	return out
}

// unwrapEnvelope returns the value under "d" when body is an enveloped object,
// otherwise body itself.
func unwrapEnvelope(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return trimmed
	}
	if inner, ok := obj[envelopeKey]; ok {
		return inner
	}
	return trimmed
}

// decodeValue parses raw into a generic value, keeping numbers as json.Number.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func hasFailureMarker(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "error") || strings.Contains(lower, "fail")
}

// errorValue reports whether an unwrapped response is an error-marked string.
func errorValue(raw json.RawMessage) (string, bool) {
	v, err := decodeValue(raw)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || !hasFailureMarker(s) {
		return "", false
	}
	return s, true
}

// firstField returns the first non-empty value among keys, stringified.
func firstField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringify(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
