// Package handlers provides HTTP handlers for the offline cache control plane.
package handlers

import (
	"net/http"
)

// ContentTypeProblemJSON is the media type of RFC 7807 problem documents.
const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 problem document. Title is the status text of
// Status; Detail carries the error.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// WriteProblem writes a problem document for status.
func WriteProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	writeJSON(w, status, Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// BadRequest writes 400, for malformed bodies and unknown messages.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, detail)
}

// Unauthorized writes 401 with a Bearer challenge.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="offlinecache"`)
	WriteProblem(w, http.StatusUnauthorized, detail)
}

// NotFound writes 404, for unknown partitions.
func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, detail)
}

// Conflict writes 409, for messages that need an active version.
func Conflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, detail)
}

// UnprocessableEntity writes 422, for manifests that fail to parse.
func UnprocessableEntity(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusUnprocessableEntity, detail)
}

// InternalServerError writes 500, for storage failures.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, detail)
}

// BadGateway writes 502, when the origin could not be reached while
// installing or downloading.
func BadGateway(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadGateway, detail)
}
