package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finplan/internal/core"

	"github.com/gorilla/mux"
)

func withVars(vars map[string]string) *http.Request {
	return mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), vars)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"sourceMonthYear":"2025-09","targetMonthYear":"2025-10"}`},
		{name: "empty body", body: "", wantErr: "request body is required"},
		{name: "malformed", body: `{"sourceMonthYear":`, wantErr: "malformed JSON body"},
		{name: "trailing data", body: `{"sourceMonthYear":"2025-09"} {}`, wantErr: "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got cloneRequest
			err := DecodeJSON(httptest.NewRecorder(), r, &got)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				if got.SourceMonthYear != "2025-09" || got.TargetMonthYear != "2025-10" {
					t.Errorf("DecodeJSON() = %+v", got)
				}
				return
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("DecodeJSON() error = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeJSON() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"sourceMonthYear":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var got cloneRequest
	if err := DecodeJSON(httptest.NewRecorder(), r, &got); !errors.Is(err, core.ErrValidation) {
		t.Errorf("DecodeJSON() error = %v, want validation error", err)
	}
}

func TestPathString(t *testing.T) {
	got, err := PathString(withVars(map[string]string{"id": "  acc-1\x00 "}), "id")
	if err != nil {
		t.Fatalf("PathString() error = %v", err)
	}
	if got != "acc-1" {
		t.Errorf("PathString() = %q, want %q", got, "acc-1")
	}

	if _, err := PathString(withVars(nil), "id"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("PathString() missing var error = %v", err)
	}
}

func TestPathDate(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Date
		wantErr bool
	}{
		{in: "2025-10-01", want: core.NewDate(2025, 10, 1)},
		{in: "2025-02-30", wantErr: true},
		{in: "10/01/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PathDate(withVars(map[string]string{"date": tt.in}), "date")
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Errorf("PathDate(%q) error = %v, want validation error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PathDate(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("PathDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathYear(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "2025", want: 2025},
		{in: "1899", wantErr: true},
		{in: "twenty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PathYear(withVars(map[string]string{"year": tt.in}), "year")
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathYear(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathYear(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathAccountTypeAndStatus(t *testing.T) {
	kind, err := PathAccountType(withVars(map[string]string{"kind": "credit_card"}), "kind")
	if err != nil || kind != core.CreditCard {
		t.Errorf("PathAccountType() = %q, %v", kind, err)
	}
	if _, err := PathAccountType(withVars(map[string]string{"kind": "BOAT_LOAN"}), "kind"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("PathAccountType(BOAT_LOAN) error = %v", err)
	}

	status, err := PathAccountStatus(withVars(map[string]string{"status": "paid_off"}), "status")
	if err != nil || status != core.StatusPaidOff {
		t.Errorf("PathAccountStatus() = %q, %v", status, err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal", "normal"},
		{"  spaces  ", "spaces"},
		{"with\x00null", "withnull"},
		{"tab\tkept", "tab\tkept"},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
