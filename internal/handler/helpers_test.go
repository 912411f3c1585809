package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// queryInt tests
// ---------------------------------------------------------------------------

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		key        string
		defaultVal int
		want       int
	}{
		{"returns default for missing param", "/test", "limit", 25, 25},
		{"parses integer param", "/test?limit=100", "limit", 25, 100},
		{"returns default for non-integer", "/test?limit=abc", "limit", 25, 25},
		{"parses zero", "/test?offset=0", "offset", 10, 0},
		{"parses negative", "/test?offset=-5", "offset", 0, -5},
		{"returns default for empty value", "/test?limit=", "limit", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryInt(r, tt.key, tt.defaultVal)
			if got != tt.want {
				t.Errorf("queryInt(%q, %d) = %d, want %d", tt.key, tt.defaultVal, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// queryBool tests
// ---------------------------------------------------------------------------

func TestQueryBool(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want bool
	}{
		{"true for 'true'", "/test?include_count=true", "include_count", true},
		{"true for '1'", "/test?include_count=1", "include_count", true},
		{"false for 'false'", "/test?include_count=false", "include_count", false},
		{"false for missing", "/test", "include_count", false},
		{"false for '0'", "/test?include_count=0", "include_count", false},
		{"false for empty", "/test?include_count=", "include_count", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryBool(r, tt.key)
			if got != tt.want {
				t.Errorf("queryBool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// queryString tests
// ---------------------------------------------------------------------------

func TestQueryString(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want string
	}{
		{"returns value", "/test?filter=age>21", "filter", "age>21"},
		{"returns empty for missing", "/test", "filter", ""},
		{"returns empty string for empty", "/test?filter=", "filter", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryString(r, tt.key)
			if got != tt.want {
				t.Errorf("queryString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// writeError tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	t.Run("writes JSON error response", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, http.StatusBadRequest, "Invalid input")

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"code":400`) {
			t.Errorf("expected code 400 in body: %s", body)
		}
		if !strings.Contains(body, `"message":"Invalid input"`) {
			t.Errorf("expected message in body: %s", body)
		}
	})
}

// ---------------------------------------------------------------------------
// writeJSON tests
// ---------------------------------------------------------------------------

func TestWriteJSON(t *testing.T) {
	t.Run("writes JSON with correct content type", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"hello":"world"`) {
			t.Errorf("expected JSON body, got: %s", body)
		}
	})
}

// ---------------------------------------------------------------------------
// queryIDs tests
// ---------------------------------------------------------------------------

func TestQueryIDs(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    []int64
		wantErr bool
	}{
		{"missing", "/test", nil, false},
		{"single", "/test?ids=42", []int64{42}, false},
		{"list with spaces", "/test?ids=1,%202,3", []int64{1, 2, 3}, false},
		{"skips blanks", "/test?ids=1,,2,", []int64{1, 2}, false},
		{"rejects text", "/test?ids=1,abc", nil, true},
		{"rejects zero", "/test?ids=0", nil, true},
		{"rejects over limit", "/test?ids=1,2,3,4", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got, err := queryIDs(r, "ids", 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("queryIDs error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("queryIDs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("queryIDs[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWriteMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeMessage(w, http.StatusConflict, "User is already banned")

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"message":"User is already banned"`) {
		t.Errorf("unexpected body: %s", body)
	}
}

// ---------------------------------------------------------------------------
// readJSON tests
// ---------------------------------------------------------------------------

func TestReadJSONContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantErr     bool
		wantStatus  int
	}{
		{"json", "application/json", false, 0},
		{"json with charset", "application/json; charset=utf-8", false, 0},
		{"text plain", "text/plain", true, http.StatusUnsupportedMediaType},
		{"form", "application/x-www-form-urlencoded", true, http.StatusUnsupportedMediaType},
		{"missing", "", true, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"Griefer"}`))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			var v struct {
				Username string `json:"username"`
			}
			err := readJSON(w, r, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readJSON err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if v.Username != "Griefer" {
					t.Errorf("username = %q", v.Username)
				}
				return
			}
			writeBodyError(w, err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
