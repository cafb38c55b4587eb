package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"olimport/src/domain"
)

func (s *Server) SearchAuthors(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		http.Error(w, "Query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "Invalid 'limit' format", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := s.authorsService.SearchByName(r.Context(), term, limit)
	if err != nil {
		log.Printf("ERROR: Failed to search authors for '%s': %v", term, err)

		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	searchDTO := MapSearchToResponse(term, results)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(searchDTO); err != nil {
		log.Printf("ERROR: Failed to write JSON response: %v", err)
	}
}
