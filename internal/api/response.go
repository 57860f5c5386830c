// Package api implements the local HTTP control API. It uses Chi as the
// router and binds to loopback only; CORS is permissive because the network
// boundary is the loopback interface itself, not the Origin header.
package api

import (
	"encoding/json"
	"net/http"
)

// statusResponse is the body of every mutating endpoint:
//
//	{"success": true, "message": "..."}
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes a JSON-encoded response with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Ok writes a 200 with {"success":true,"message":...}.
func Ok(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, statusResponse{Success: true, Message: message})
}

// ErrInternal writes a 500 with {"success":false,"message":...}.
func ErrInternal(w http.ResponseWriter, message string) {
	JSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: message})
}

// ErrBadRequest writes a 400 with {"success":false,"message":...}.
func ErrBadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, statusResponse{Success: false, Message: message})
}

// decodeJSON decodes the request body into dst, writing a 400 and returning
// false on failure so callers can early-return.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		ErrBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
