package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/http/handlers"
)

func bindRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var req handlers.RegisterRequest
		if !handlers.BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

type bindErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Details struct {
			Fields []handlers.FieldError `json:"fields"`
			JSON   string                `json:"json"`
		} `json:"details"`
	} `json:"error"`
}

func postRaw(r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorBody) {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed bindErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	return w, parsed
}

func fieldNames(fields []handlers.FieldError) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Field)
	}
	return out
}

func TestBindReportsNestedJSONFieldPaths(t *testing.T) {
	r := bindRouter()

	w, body := postRaw(r, `{
		"fullName": {"firstName": "J"},
		"email": "not-an-email",
		"password": "short"
	}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	got := fieldNames(body.Error.Details.Fields)

	for _, want := range []string{"fullName.firstName", "fullName.lastName", "email", "password"} {
		found := false
		for _, f := range got {
			if f == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing field %q in %v", want, got)
		}
	}
}

func TestBindReportsRulesAndMessages(t *testing.T) {
	r := bindRouter()

	_, body := postRaw(r, `{
		"fullName": {"firstName": "Jamie", "lastName": "Rivera"},
		"email": "a@b.com",
		"password": "short"
	}`)

	if len(body.Error.Details.Fields) != 1 {
		t.Fatalf("want exactly one field error, got %v", body.Error.Details.Fields)
	}

	fe := body.Error.Details.Fields[0]
	if fe.Field != "password" || fe.Rule != "min" || fe.Param != "8" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
	if !strings.Contains(fe.Message, "at least 8") {
		t.Fatalf("message %q should mention the minimum", fe.Message)
	}
}

func TestBindRejectsInvalidJSONSyntax(t *testing.T) {
	r := bindRouter()

	// a truncated body and a malformed one take different decoder error
	// paths; both must land on the same envelope
	for _, payload := range []string{`{"email": `, `{"email": }`} {
		w, body := postRaw(r, payload)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: got %d, want 400", payload, w.Code)
		}
		if body.Error.Details.JSON != "invalid_json_syntax" {
			t.Fatalf("payload %q: details.json = %q, want invalid_json_syntax", payload, body.Error.Details.JSON)
		}
	}
}

func TestBindReportsTypeMismatchWithJSONPath(t *testing.T) {
	r := bindRouter()

	w, body := postRaw(r, `{
		"fullName": {"firstName": "Jamie", "lastName": "Rivera"},
		"email": "a@b.com",
		"password": 12345678
	}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}
	if body.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("details.json = %q, want invalid_json_type", body.Error.Details.JSON)
	}

	fields := body.Error.Details.Fields
	if len(fields) != 1 || fields[0].Field != "password" || fields[0].Rule != "type" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestBindRejectsUnknownRole(t *testing.T) {
	r := bindRouter()

	w, body := postRaw(r, `{
		"fullName": {"firstName": "Jamie", "lastName": "Rivera"},
		"email": "a@b.com",
		"password": "s3cret-pass",
		"role": "WIZARD"
	}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}

	fields := body.Error.Details.Fields
	if len(fields) != 1 || fields[0].Field != "role" || fields[0].Rule != "oneof" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}
