package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateGradeRecord, GradeRecord{})
	return v
}

// validateGradeRecord requires a mark unless the student is explicitly absent.
func validateGradeRecord(sl validator.StructLevel) {
	r, ok := sl.Current().Interface().(GradeRecord)
	if !ok || (r.IsAbsent != nil && *r.IsAbsent) {
		return
	}
	if strings.TrimSpace(r.MarkValue) == "" {
		sl.ReportError(r.MarkValue, "MarkValue", "MarkValue", "required_unless_absent", "")
	}
}

// Credentials are supplied per login and never stored.
type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Session holds the identifiers a successful login returns.
// Fields are never absent: ids default to "0" and the token to "".
type Session struct {
	UserID     string `json:"userId"`
	AuthToken  string `json:"auth"`
	UserRoleID string `json:"userRoleId"`
	SchoolID   string `json:"schoolId"`
	TeacherID  string `json:"teacherId"`
}

// Active reports whether the session can authenticate calls.
func (s Session) Active() bool {
	return strings.TrimSpace(s.AuthToken) != ""
}

// AbsenceType is the attendance status sent to the registry.
type AbsenceType int

const (
	Present AbsenceType = iota
	Absent
	Late
)

func (t AbsenceType) String() string {
	switch t {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Late:
		return "late"
	default:
		return fmt.Sprintf("absence(%d)", int(t))
	}
}

// ParseAbsenceType accepts present, absent or late.
func ParseAbsenceType(s string) (AbsenceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "":
		return Present, nil
	case "absent":
		return Absent, nil
	case "late":
		return Late, nil
	}
	return 0, fmt.Errorf("%w: unknown absence type %q", ErrInvalidInput, s)
}

// AbsenceRecord is one student's attendance for the batch date.
type AbsenceRecord struct {
	StudentID string      `validate:"required"`
	Type      AbsenceType `validate:"oneof=0 1 2"`
	ReasonID  *int
	Notes     string
}

// GradeRecord is one student's mark for the batch exam.
type GradeRecord struct {
	StudentID string `validate:"required"`
	MarkValue string
	IsAbsent  *bool
	Notes     string
}

// BatchContext scopes a submission. Which fields are required depends on the operation.
type BatchContext struct {
	ClassID       string `validate:"required"`
	GradeID       string `validate:"required"`
	TermID        string `validate:"required"`
	SubjectID     string `validate:"required"`
	ExamID        string `validate:"required"`
	EduSysID      string
	StageID       string
	ExamGradeType int `validate:"gte=0"`
	Date          time.Time
}

// AbsenceQuery selects one student's absence records.
type AbsenceQuery struct {
	StudentNo string `validate:"required"`
	ClassID   string `validate:"required"`
	GradeID   string `validate:"required"`
	Start     time.Time
	End       time.Time
}

// ProbeResult reports where discovery ended.
type ProbeResult struct {
	Found        bool
	StatusCode   int
	ResolvedPath string
	Message      string
}

// Timeouts are per-call limits enforced by the transport.
type Timeouts struct {
	Probe  time.Duration
	Login  time.Duration
	List   time.Duration
	Detail time.Duration
	Submit time.Duration
}

// DefaultTimeouts returns the limits used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:  8 * time.Second,
		Login:  15 * time.Second,
		List:   10 * time.Second,
		Detail: 15 * time.Second,
		Submit: 20 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	if t.Probe <= 0 {
		t.Probe = def.Probe
	}
	if t.Login <= 0 {
		t.Login = def.Login
	}
	if t.List <= 0 {
		t.List = def.List
	}
	if t.Detail <= 0 {
		t.Detail = def.Detail
	}
	if t.Submit <= 0 {
		t.Submit = def.Submit
	}
	return t
}

// Options are shared by the resolver, session manager and submitter.
type Options struct {
	Timeouts Timeouts
	Logger   *zerolog.Logger
	// Observe, when set, is called on every login state transition.
	Observe func(state State, path string)
}

func (o Options) logger(component string) zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return o.Logger.With().Str("component", component).Logger()
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
