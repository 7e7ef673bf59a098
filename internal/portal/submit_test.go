package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/transport"
)

var testSession = Session{UserID: "7", AuthToken: "tok", UserRoleID: "4", SchoolID: "440", TeacherID: "91"}

func newTestSubmitter(sender transport.Sender, baseURL string) *Submitter {
	reg := endpoints.NewRegistry(endpoints.NewMemoryStore(endpoints.Config{BaseURL: baseURL}))
	return NewSubmitter(reg, sender, Options{})
}

func TestSubmitAbsence_PostsBatchOverHTTP(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"d":"Saved"}`))
	}))
	t.Cleanup(server.Close)

	s := newTestSubmitter(transport.New(), server.URL)
	reason := 3
	ack, err := s.SubmitAbsence(context.Background(), testSession, BatchContext{
		ClassID: "5",
		GradeID: "10",
		Date:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
	}, []AbsenceRecord{
		{StudentID: "1001", Type: Absent, ReasonID: &reason},
		{StudentID: "1002", Type: Late, Notes: "bus"},
		{StudentID: "1003"},
	})
	require.NoError(t, err)
	require.Equal(t, 200, ack.StatusCode)
	require.Equal(t, 3, ack.Records)
	require.JSONEq(t, `"Saved"`, string(ack.Payload))

	require.Equal(t, "/SubmitStudentAbsenceDetails", gotPath)
	require.Equal(t, "7", got["userId"])
	require.Equal(t, "tok", got["auth"])
	require.Equal(t, "440", got["SchoolId"])
	require.Equal(t, "4", got["UserRoleId"])
	require.Equal(t, "5", got["ClassId"])
	require.Equal(t, "10", got["GradeId"])
	require.Equal(t, "2026-03-09", got["StartDate"])

	details := got["StdsAbsDetails"].([]any)
	require.Len(t, details, 3)
	first := details[0].(map[string]any)
	require.Equal(t, "1001", first["StudentId"])
	require.EqualValues(t, 1, first["AbsenceType"])
	require.EqualValues(t, 3, first["ReasonId"])
	third := details[2].(map[string]any)
	require.EqualValues(t, 0, third["AbsenceType"])
	require.NotContains(t, third, "ReasonId")
	require.NotContains(t, third, "Notes")
}

func TestSubmitGrades_AppliesDefaults(t *testing.T) {
	sender := newScriptedSender(map[string]scriptedReply{
		"/SubmitStudentMarksDetails": {status: 200, body: `{"d":{"Count":2}}`},
	})
	s := newTestSubmitter(sender, testBase)
	absent := true

	ack, err := s.SubmitGrades(context.Background(), testSession, BatchContext{
		ClassID: "5", GradeID: "10", TermID: "1", SubjectID: "MATH", ExamID: "E1",
	}, []GradeRecord{
		{StudentID: "1001", MarkValue: "18.5"},
		{StudentID: "1002", IsAbsent: &absent},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"Count":2}`, string(ack.Payload))

	body := sender.lastBody()
	require.Equal(t, "1", body["EduSysId"])
	require.Equal(t, "0", body["StageId"])
	require.EqualValues(t, 1, body["ExamGradeType"])
	require.Equal(t, "MATH", body["SubjectId"])
	grades := body["StdsGradeDetails"].([]any)
	require.Equal(t, true, grades[1].(map[string]any)["IsAbsent"])
}

func TestSubmit_ErrorsAreTyped(t *testing.T) {
	batch := BatchContext{ClassID: "5", GradeID: "10", Date: time.Now()}
	records := []AbsenceRecord{{StudentID: "1", Type: Absent}}

	t.Run("non-2xx", func(t *testing.T) {
		sender := newScriptedSender(map[string]scriptedReply{
			"/SubmitStudentAbsenceDetails": {status: 500, body: "boom"},
		})
		_, err := newTestSubmitter(sender, testBase).SubmitAbsence(context.Background(), testSession, batch, records)
		var re *RemoteError
		require.ErrorAs(t, err, &re)
		require.Equal(t, 500, re.StatusCode)
		require.Equal(t, "boom", re.Body)
		require.True(t, errors.Is(err, ErrRemote))
	})

	t.Run("error envelope", func(t *testing.T) {
		sender := newScriptedSender(map[string]scriptedReply{
			"/SubmitStudentAbsenceDetails": {status: 200, body: `{"d":"Error: session expired"}`},
		})
		_, err := newTestSubmitter(sender, testBase).SubmitAbsence(context.Background(), testSession, batch, records)
		require.True(t, errors.Is(err, ErrRemote))
	})

	t.Run("transport", func(t *testing.T) {
		sender := newScriptedSender(map[string]scriptedReply{
			"/SubmitStudentAbsenceDetails": {err: errNetworkDown},
		})
		_, err := newTestSubmitter(sender, testBase).SubmitAbsence(context.Background(), testSession, batch, records)
		require.True(t, errors.Is(err, ErrTransport))
	})

	t.Run("no session", func(t *testing.T) {
		sender := newScriptedSender(nil)
		_, err := newTestSubmitter(sender, testBase).SubmitAbsence(context.Background(), Session{}, batch, records)
		require.ErrorIs(t, err, ErrNoSession)
		require.Empty(t, sender.requests)
	})
}

func TestSubmit_ValidatesInput(t *testing.T) {
	sender := newScriptedSender(nil)
	s := newTestSubmitter(sender, testBase)
	ctx := context.Background()

	_, err := s.SubmitAbsence(ctx, testSession, BatchContext{ClassID: "5", Date: time.Now()}, []AbsenceRecord{{StudentID: "1"}})
	require.ErrorIs(t, err, ErrInvalidInput, "missing grade id")

	_, err = s.SubmitAbsence(ctx, testSession, BatchContext{ClassID: "5", GradeID: "1"}, []AbsenceRecord{{StudentID: "1"}})
	require.ErrorIs(t, err, ErrInvalidInput, "missing date")

	_, err = s.SubmitAbsence(ctx, testSession, BatchContext{ClassID: "5", GradeID: "1", Date: time.Now()}, nil)
	require.ErrorIs(t, err, ErrInvalidInput, "empty batch")

	_, err = s.SubmitAbsence(ctx, testSession, BatchContext{ClassID: "5", GradeID: "1", Date: time.Now()}, []AbsenceRecord{{StudentID: "1", Type: AbsenceType(9)}})
	require.ErrorIs(t, err, ErrInvalidInput, "bad absence type")

	_, err = s.SubmitGrades(ctx, testSession, BatchContext{ClassID: "5", GradeID: "1", TermID: "1", SubjectID: "S"}, []GradeRecord{{StudentID: "1", MarkValue: "1"}})
	require.ErrorIs(t, err, ErrInvalidInput, "missing exam id")

	_, err = s.SubmitGrades(ctx, testSession, BatchContext{ClassID: "5", GradeID: "1", TermID: "1", SubjectID: "S", ExamID: "E"}, []GradeRecord{{StudentID: "1"}})
	require.ErrorIs(t, err, ErrInvalidInput, "mark required when not absent")

	present, absent := false, true
	grades := BatchContext{ClassID: "5", GradeID: "1", TermID: "1", SubjectID: "S", ExamID: "E"}
	_, err = s.SubmitGrades(ctx, testSession, grades, []GradeRecord{{StudentID: "1", IsAbsent: &present}})
	require.ErrorIs(t, err, ErrInvalidInput, "explicitly present still needs a mark")
	require.Contains(t, err.Error(), "MarkValue")

	_, err = s.SubmitGrades(ctx, testSession, grades, []GradeRecord{{StudentID: "1", MarkValue: "  "}})
	require.ErrorIs(t, err, ErrInvalidInput, "blank mark")

	require.NoError(t, validateRecords([]GradeRecord{
		{StudentID: "1", IsAbsent: &absent},
		{StudentID: "2", MarkValue: "17", IsAbsent: &present},
	}))

	require.Empty(t, sender.requests)
}

func TestListClasses_ProbesAliases(t *testing.T) {
	sender := newScriptedSender(map[string]scriptedReply{
		"/GetTeacherClasses": {status: 200, body: `{"d":[{"ClassId":"5","ClassName":"10/1"}]}`},
	})
	s := newTestSubmitter(sender, testBase)

	classes, err := s.ListClasses(context.Background(), testSession)
	require.NoError(t, err)
	require.JSONEq(t, `[{"ClassId":"5","ClassName":"10/1"}]`, string(classes))
	require.Equal(t, []string{"/GetStudentAbsenceFilter", "/GetTeacherClasses"}, sender.paths(testBase))

	body := sender.lastBody()
	require.Equal(t, "91", body["DeptInsId"])
	require.Equal(t, "4", body["UserRoleId"])
}

func TestListClasses_CustomAliases(t *testing.T) {
	sender := newScriptedSender(map[string]scriptedReply{
		"/Teacher/Classes": {status: 200, body: `{"d":[{"ClassId":"9"}]}`},
	})
	reg := endpoints.NewRegistry(
		endpoints.NewMemoryStore(endpoints.Config{BaseURL: testBase}),
		endpoints.WithClassListCandidates("/Custom", "Teacher/Classes"),
	)
	s := NewSubmitter(reg, sender, Options{})

	_, err := s.ListClasses(context.Background(), testSession)
	require.NoError(t, err)
	require.Equal(t, []string{"/Custom", "/Teacher/Classes"}, sender.paths(testBase))
}

func TestListClasses_AllAliasesMissing(t *testing.T) {
	_, err := newTestSubmitter(newScriptedSender(nil), testBase).ListClasses(context.Background(), testSession)
	var de *DiscoveryError
	require.ErrorAs(t, err, &de)
	require.Equal(t, endpoints.OpListClasses, de.Op)
}

func TestAbsenceDetails_DefaultsEndDate(t *testing.T) {
	sender := newScriptedSender(map[string]scriptedReply{
		"/GetStudentAbsenceDetails": {status: 200, body: `{"d":[]}`},
	})
	s := newTestSubmitter(sender, testBase)

	out, err := s.AbsenceDetails(context.Background(), testSession, AbsenceQuery{
		StudentNo: "1001", ClassID: "5", GradeID: "10",
		Start: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(out))

	body := sender.lastBody()
	require.Equal(t, "2026-01-04", body["StartDate"])
	require.Equal(t, "2026-01-04", body["EndDate"])
	require.Equal(t, "1001", body["StudentSchoolNo"])
	require.Equal(t, "91", body["DepInsId"])
}

func TestUserMessage(t *testing.T) {
	require.Contains(t, UserMessage(&DiscoveryError{Op: endpoints.OpLogin}), "server address")
	require.Equal(t, "Wrong username or password.", UserMessage(&AuthError{}))
	require.Contains(t, UserMessage(&RemoteError{StatusCode: 503}), "503")
	require.Contains(t, UserMessage(&TransportError{Op: endpoints.OpLogin, Err: errNetworkDown}), "internet")
	require.Empty(t, UserMessage(nil))
}
