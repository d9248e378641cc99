package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teranos/sqb/db"
	"github.com/teranos/sqb/errors"
)

// maxRequestBodyBytes bounds JSON request bodies
const maxRequestBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeErrorWithHints(w, status, message, nil)
}

// writeErrorWithHints writes a JSON error response carrying user-facing hints
func writeErrorWithHints(w http.ResponseWriter, status int, message string, hints []string) {
	body := map[string]interface{}{"error": message}
	if len(hints) > 0 {
		body["hints"] = hints
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeErrorFromErr maps a domain error to a status code and writes it
func writeErrorFromErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsEditRejected(err):
		status = http.StatusConflict
	case db.IsDatabaseClosed(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.IsInvalidRequestError(err),
		errors.Is(err, errors.ErrInvalidIndex),
		errors.Is(err, errors.ErrEmptyEdit):
		status = http.StatusBadRequest
	}
	writeErrorWithHints(w, status, err.Error(), errors.GetAllHints(err))
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return err
	}
	return nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// extractPathParts extracts path segments after removing a prefix
func extractPathParts(urlPath, prefix string) []string {
	return strings.Split(strings.Trim(strings.TrimPrefix(urlPath, prefix), "/"), "/")
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
