package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/transport"
)

const (
	defaultEduSysID      = "1"
	defaultStageID       = "0"
	defaultExamGradeType = 1
)

// Ack is the registry's acknowledgment of a whole batch.
type Ack struct {
	StatusCode int
	Payload    json.RawMessage // unwrapped response value
	Records    int
}

// Submitter performs authenticated calls on fixed paths.
type Submitter struct {
	registry *endpoints.Registry
	sender   transport.Sender
	timeouts Timeouts
	logger   zerolog.Logger
}

// NewSubmitter builds a Submitter.
func NewSubmitter(registry *endpoints.Registry, sender transport.Sender, opts Options) *Submitter {
	if registry == nil {
		registry = endpoints.NewRegistry(nil)
	}
	return &Submitter{
		registry: registry,
		sender:   sender,
		timeouts: opts.Timeouts.withDefaults(),
		logger:   opts.logger("submit"),
	}
}

// ListClasses returns the teacher's class list. Deployments disagree on the
// path name, so the known aliases are tried in order.
func (s *Submitter) ListClasses(ctx context.Context, sess Session) (json.RawMessage, error) {
	baseURL, err := s.ready(sess)
	if err != nil {
		return nil, err
	}
	body := classListRequest{
		UserID:     sess.UserID,
		Auth:       sess.AuthToken,
		UserRoleID: sess.UserRoleID,
		SchoolID:   sess.SchoolID,
		TeacherID:  sess.TeacherID,
	}

	last, tried := walkCandidates(ctx, s.registry.ClassListCandidates(), func(ctx context.Context, path string) attempt {
		resp, err := s.sender.Send(ctx, transport.Request{
			Method:  http.MethodPost,
			URL:     endpoints.Join(baseURL, path),
			Body:    body,
			Timeout: s.timeouts.List,
		})
		return classifyResponse(path, resp, err)
	})
	switch last.kind {
	case attemptFailed:
		return nil, wrapSendErr(endpoints.OpListClasses, last.err)
	case attemptNotFound:
		return nil, &DiscoveryError{Op: endpoints.OpListClasses, BaseURL: baseURL, Tried: tried}
	}
	ack, err := s.interpret(endpoints.OpListClasses, last.resp)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("path", last.path).Msg("classes listed")
	return ack.Payload, nil
}

// AbsenceDetails fetches one student's absence records between two dates.
// A zero End uses Start.
func (s *Submitter) AbsenceDetails(ctx context.Context, sess Session, q AbsenceQuery) (json.RawMessage, error) {
	if err := validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if q.Start.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	end := q.End
	if end.IsZero() {
		end = q.Start
	}
	if end.Before(q.Start) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}
	body := absenceDetailRequest{
		UserID:     sess.UserID,
		Auth:       sess.AuthToken,
		UserRoleID: sess.UserRoleID,
		SchoolID:   sess.SchoolID,
		TeacherID:  sess.TeacherID,
		GradeID:    q.GradeID,
		ClassID:    q.ClassID,
		StudentNo:  q.StudentNo,
		StartDate:  formatDate(q.Start),
		EndDate:    formatDate(end),
	}
	ack, err := s.post(ctx, sess, endpoints.OpAbsenceDetail, body, s.timeouts.Detail)
	if err != nil {
		return nil, err
	}
	return ack.Payload, nil
}

// SubmitAbsence sends the attendance of one class for batch.Date.
func (s *Submitter) SubmitAbsence(ctx context.Context, sess Session, batch BatchContext, records []AbsenceRecord) (Ack, error) {
	if err := validate.StructPartial(batch, "ClassID", "GradeID"); err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if batch.Date.IsZero() {
		return Ack{}, fmt.Errorf("%w: attendance date is required", ErrInvalidInput)
	}
	if err := validateRecords(records); err != nil {
		return Ack{}, err
	}
	body := absenceSubmitRequest{
		UserID:     sess.UserID,
		Auth:       sess.AuthToken,
		SchoolID:   sess.SchoolID,
		GradeID:    batch.GradeID,
		ClassID:    batch.ClassID,
		StartDate:  formatDate(batch.Date),
		UserRoleID: sess.UserRoleID,
		Details:    toAbsenceWire(records),
	}
	ack, err := s.post(ctx, sess, endpoints.OpSubmitAbsence, body, s.timeouts.Submit)
	if err != nil {
		return Ack{}, err
	}
	ack.Records = len(records)
	s.logger.Info().Str("class_id", batch.ClassID).Str("date", body.StartDate).Int("records", ack.Records).Msg("absence submitted")
	return ack, nil
}

// SubmitGrades sends the marks of one class for one exam.
func (s *Submitter) SubmitGrades(ctx context.Context, sess Session, batch BatchContext, records []GradeRecord) (Ack, error) {
	if err := validate.StructPartial(batch, "ClassID", "GradeID", "TermID", "SubjectID", "ExamID", "ExamGradeType"); err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateRecords(records); err != nil {
		return Ack{}, err
	}
	examGradeType := batch.ExamGradeType
	if examGradeType == 0 {
		examGradeType = defaultExamGradeType
	}
	body := gradeSubmitRequest{
		UserID:        sess.UserID,
		Auth:          sess.AuthToken,
		SchoolID:      sess.SchoolID,
		UserRoleID:    sess.UserRoleID,
		ClassID:       batch.ClassID,
		GradeID:       batch.GradeID,
		TermID:        batch.TermID,
		SubjectID:     batch.SubjectID,
		ExamID:        batch.ExamID,
		EduSysID:      orDefault(strings.TrimSpace(batch.EduSysID), defaultEduSysID),
		StageID:       orDefault(strings.TrimSpace(batch.StageID), defaultStageID),
		ExamGradeType: examGradeType,
		Details:       toGradeWire(records),
	}
	ack, err := s.post(ctx, sess, endpoints.OpSubmitGrades, body, s.timeouts.Submit)
	if err != nil {
		return Ack{}, err
	}
	ack.Records = len(records)
	s.logger.Info().Str("class_id", batch.ClassID).Str("exam_id", batch.ExamID).Int("records", ack.Records).Msg("grades submitted")
	return ack, nil
}

func (s *Submitter) ready(sess Session) (string, error) {
	if s == nil || s.sender == nil {
		return "", fmt.Errorf("submitter is not configured")
	}
	if !sess.Active() {
		return "", ErrNoSession
	}
	cfg, err := s.registry.Config()
	if err != nil {
		s.logger.Warn().Err(err).Msg("endpoint config unavailable, using defaults")
	}
	return cfg.BaseURL, nil
}

func (s *Submitter) post(ctx context.Context, sess Session, op endpoints.Operation, body any, timeout time.Duration) (Ack, error) {
	baseURL, err := s.ready(sess)
	if err != nil {
		return Ack{}, err
	}
	resp, err := s.sender.Send(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     endpoints.Join(baseURL, s.registry.Path(op)),
		Body:    body,
		Timeout: timeout,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("op", string(op)).Msg("request failed")
		return Ack{}, wrapSendErr(op, err)
	}
	return s.interpret(op, resp)
}

// interpret turns a response into an Ack, or a RemoteError for a non-2xx
// status or an error-marked answer.
func (s *Submitter) interpret(op endpoints.Operation, resp transport.Response) (Ack, error) {
	if !resp.OK() {
		s.logger.Warn().Str("op", string(op)).Int("status", resp.StatusCode).Msg("registry rejected request")
		return Ack{}, &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}
	payload := unwrapEnvelope(resp.Body)
	if msg, bad := errorValue(payload); bad {
		s.logger.Warn().Str("op", string(op)).Str("answer", msg).Msg("registry answered with an error")
		return Ack{}, &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: msg}
	}
	return Ack{StatusCode: resp.StatusCode, Payload: payload}, nil
}

func validateRecords[T AbsenceRecord | GradeRecord](records []T) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: batch has no records", ErrInvalidInput)
	}
	for i := range records {
		if err := validate.Struct(records[i]); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrInvalidInput, i+1, err)
		}
	}
	return nil
}
