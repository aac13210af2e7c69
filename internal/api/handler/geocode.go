package handler

import (
	"errors"
	"net/http"

	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/geocode"
)

// NewGeocodeSearchHandler returns an http.HandlerFunc for GET
// /api/v1/geocode/search?address=. It proxies address lookups so job
// owners can attach coordinates to a job location.
func NewGeocodeSearchHandler(client geocode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		if address == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"address query parameter is required", nil)
			return
		}

		results, err := client.Search(r.Context(), address)
		if err != nil {
			switch {
			case errors.Is(err, geocode.ErrAddressNotFound):
				response.Error(w, http.StatusNotFound, "ADDRESS_NOT_FOUND",
					"No match for that address", nil)
			case errors.Is(err, geocode.ErrTimeout), errors.Is(err, geocode.ErrUnreachable):
				response.Error(w, http.StatusBadGateway, "GEOCODER_UNAVAILABLE",
					"Geocoding service is unavailable", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Geocoding lookup failed", nil)
			}
			return
		}
		response.JSON(w, results)
	}
}
