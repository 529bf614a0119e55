package question

import (
	"encoding/json"
	"net/http"
)

// CategoriesResponse is the body of GET /v1/categories.
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

// CategoriesHandler serves the category list for the configuration form.
func CategoriesHandler(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_ = json.NewEncoder(w).Encode(CategoriesResponse{Categories: catalog.Categories(r.Context())})
	}
}
