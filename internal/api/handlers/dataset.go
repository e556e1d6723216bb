package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
)

// DatasetDescriber is the metadata view of the loaded dataset.
type DatasetDescriber interface {
	Summarize() dataset.Summary
	Columns() []dataset.Column
	Source() string
}

type DatasetHandler struct {
	ds DatasetDescriber
}

func NewDatasetHandler(ds DatasetDescriber) *DatasetHandler {
	return &DatasetHandler{ds: ds}
}

type datasetResponse struct {
	dataset.Summary
	Columns []dataset.Column `json:"columns"`
	Source  string           `json:"source"`
}

// GetDataset handles GET /api/v1/dataset.
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": datasetResponse{
		Summary: h.ds.Summarize(),
		Columns: h.ds.Columns(),
		Source:  h.ds.Source(),
	}})
}
