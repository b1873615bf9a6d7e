package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter(out func() any) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(64))
	r.POST("/bind", func(ctx *gin.Context) {
		if !handlers.BindJSON(ctx, out()) {
			return
		}
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func postBind(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBindError(t *testing.T, w *httptest.ResponseRecorder) bindErrorResponse {
	t.Helper()

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestBindJSON_BindingTagsUseJSONFieldNames(t *testing.T) {
	r := bindRouter(func() any { return &handlers.LoginRequest{} })

	w := postBind(r, `{"username":"alice"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeBindError(t, w)
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("want one field error, got %+v", resp.Error.Details.Fields)
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "password" || fieldErr.Rule != "required" || fieldErr.Message == "" {
		t.Fatalf("unexpected field error %+v", fieldErr)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter(func() any { return &apikey.UpdateRequest{} })

	w := postBind(r, `{"isActive":"yes"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeBindError(t, w)

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "isActive" {
		t.Fatalf("expected detail field to be isActive, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "isActive" || fieldErr.Rule != "type" || fieldErr.Message == "" {
		t.Fatalf("unexpected field error %+v", fieldErr)
	}
}

func TestBindJSON_MalformedBodies(t *testing.T) {
	r := bindRouter(func() any { return &apikey.UpdateRequest{} })

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantJSON   string
	}{
		{"syntax", `{"isActive":`, http.StatusBadRequest, "invalid_json_syntax"},
		{"empty", ``, http.StatusBadRequest, "empty_body"},
		{"too large", `{"isActive":true,"pad":"` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postBind(r, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			resp := decodeBindError(t, w)
			if resp.Error.Details.JSON != tt.wantJSON {
				t.Fatalf("details.json=%q, want %q", resp.Error.Details.JSON, tt.wantJSON)
			}
		})
	}
}
