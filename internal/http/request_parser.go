// Package http exposes the finplan services as a JSON API.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, path variables and query parameters. Every parse failure is a
// core validation error so ErrorFor turns it into a 400.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"finplan/internal/core"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("request body is required")
		}
		return core.Invalid("malformed JSON body: %v", err)
	}
	if dec.More() {
		return core.Invalid("malformed JSON body: trailing data")
	}
	return nil
}

// PathString returns the named path variable, sanitized.
func PathString(r *http.Request, name string) (string, error) {
	v := sanitizeInput(mux.Vars(r)[name])
	if v == "" {
		return "", core.Invalid("%s is required", name)
	}
	return v, nil
}

// PathDate parses a YYYY-MM-DD path variable.
func PathDate(r *http.Request, name string) (core.Date, error) {
	v, err := PathString(r, name)
	if err != nil {
		return core.Date{}, err
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid("%s must be YYYY-MM-DD", name)
	}
	return d, nil
}

// PathYear parses a four-digit year path variable.
func PathYear(r *http.Request, name string) (int, error) {
	v, err := PathString(r, name)
	if err != nil {
		return 0, err
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1900 || year > 2999 {
		return 0, core.Invalid("%s must be a four-digit year", name)
	}
	return year, nil
}

// PathAccountType parses an account kind such as CREDIT_CARD.
func PathAccountType(r *http.Request, name string) (core.AccountType, error) {
	v, err := PathString(r, name)
	if err != nil {
		return "", err
	}
	return core.ParseAccountType(v)
}

// PathAccountStatus parses an account status such as PAID_OFF.
func PathAccountStatus(r *http.Request, name string) (core.AccountStatus, error) {
	v, err := PathString(r, name)
	if err != nil {
		return "", err
	}
	return core.ParseAccountStatus(v)
}
