package api

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeSlotUnavailable reports a rejected slot along with the structured
// verdict so the client can offer the alternatives directly.
func writeSlotUnavailable(w http.ResponseWriter, details string, v AvailabilityResponse) {
	writeJSON(w, http.StatusConflict, ErrorResponse{
		Error:        "slot_unavailable",
		Details:      details,
		Availability: &v,
	})
}
