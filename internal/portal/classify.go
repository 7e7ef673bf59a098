package portal

import "fmt"

type loginVerdict int

const (
	verdictSuccess loginVerdict = iota
	verdictRejected
	verdictMalformed
)

// loginResult is the interpretation of a login response body.
type loginResult struct {
	verdict loginVerdict
	session Session
	reason  string
}

// classifyLoginResult interprets a login body. The registry has no error schema,
// so rejection is detected from failure words in a string answer or from an
// object carrying neither a user id nor a token.
func classifyLoginResult(body []byte) loginResult {
	value, err := decodeValue(unwrapEnvelope(body))
	if err != nil {
		return loginResult{verdict: verdictMalformed, reason: "response is not JSON"}
	}

	switch v := value.(type) {
	case string:
		if hasFailureMarker(v) {
			return loginResult{verdict: verdictRejected, reason: v}
		}
		return loginResult{verdict: verdictMalformed, reason: fmt.Sprintf("unexpected text response %q", v)}
	case map[string]any:
		userID := firstField(v, "UserID", "id")
		token := firstField(v, "AuthToken", "token")
		if !present(userID) && !present(token) {
			return loginResult{verdict: verdictRejected, reason: "response carried no user id or token"}
		}
		return loginResult{verdict: verdictSuccess, session: sessionFrom(v)}
	case nil:
		return loginResult{verdict: verdictMalformed, reason: "empty response"}
	default:
		return loginResult{verdict: verdictMalformed, reason: fmt.Sprintf("unexpected %T response", v)}
	}
}

func sessionFrom(obj map[string]any) Session {
	return Session{
		UserID:     orDefault(firstField(obj, "UserID", "id"), "0"),
		AuthToken:  firstField(obj, "AuthToken", "token"),
		UserRoleID: orDefault(firstField(obj, "UserRoleId"), "0"),
		SchoolID:   orDefault(firstField(obj, "SchoolId"), "0"),
		TeacherID:  orDefault(firstField(obj, "DepInsId", "DeptInsId"), "0"),
	}
}

// present treats "0" like a missing id; the registry sends 0 for unknown users.
func present(s string) bool {
	return s != "" && s != "0"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
