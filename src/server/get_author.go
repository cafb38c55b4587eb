package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"olimport/src/domain"
)

func (s *Server) GetAuthorByOLID(w http.ResponseWriter, r *http.Request) {
	olid := r.PathValue("olid")
	if olid == "" {
		http.Error(w, "Author OLID is required", http.StatusBadRequest)
		return
	}

	if !domain.IsValidOLID(olid) {
		http.Error(w, "Invalid OLID format", http.StatusBadRequest)
		return
	}

	author, err := s.authorsService.GetByOLID(r.Context(), olid)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		log.Printf("ERROR: Failed to get author '%s': %v", olid, err)

		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	authorDTO := MapAuthorToResponse(author)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(authorDTO); err != nil {
		log.Printf("ERROR: Failed to write JSON response: %v", err)
	}
}
