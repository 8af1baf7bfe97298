package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"notebookService/internal/apperr"
)

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"message":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	respondRaw(w, status, response)
}

// respondRaw writes already serialized JSON, such as cached entities, verbatim.
func respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageBody{Message: message})
}

// respondError maps err onto its HTTP status. Internal failures are logged
// and carry the underlying message in "error".
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	body := messageBody{Message: apperr.Message(err)}
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		body.Error = err.Error()
	}
	respondJSON(w, status, body)
}
