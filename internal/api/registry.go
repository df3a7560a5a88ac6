package api

import (
	"github.com/atlasmap-sc/cellplot/internal/service"
)

// DatasetInfo contains information about a dataset for the API response.
type DatasetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DatasetRegistry holds plot services for all configured datasets.
type DatasetRegistry struct {
	services       map[string]*service.PlotService
	defaultDataset string
	datasetOrder   []string
	title          string
}

// NewDatasetRegistry creates a new dataset registry.
func NewDatasetRegistry(defaultDataset, title string) *DatasetRegistry {
	return &DatasetRegistry{
		services:       make(map[string]*service.PlotService),
		defaultDataset: defaultDataset,
		title:          title,
	}
}

// Register adds a plot service for a dataset. Registration order is the
// display order.
func (r *DatasetRegistry) Register(datasetID string, svc *service.PlotService) {
	if _, ok := r.services[datasetID]; !ok {
		r.datasetOrder = append(r.datasetOrder, datasetID)
	}
	r.services[datasetID] = svc
	if r.defaultDataset == "" {
		r.defaultDataset = datasetID
	}
}

// Get returns the plot service for a dataset, or nil if not found.
func (r *DatasetRegistry) Get(datasetID string) *service.PlotService {
	return r.services[datasetID]
}

// Default returns the default dataset's plot service.
func (r *DatasetRegistry) Default() *service.PlotService {
	return r.services[r.defaultDataset]
}

// DefaultDatasetID returns the default dataset ID.
func (r *DatasetRegistry) DefaultDatasetID() string {
	return r.defaultDataset
}

// DatasetIDs returns all dataset IDs in registration order.
func (r *DatasetRegistry) DatasetIDs() []string {
	return r.datasetOrder
}

// Title returns the configured site title.
func (r *DatasetRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "CellPlot"
}

// Datasets returns dataset info for all registered datasets.
func (r *DatasetRegistry) Datasets() []DatasetInfo {
	infos := make([]DatasetInfo, 0, len(r.datasetOrder))
	for _, id := range r.datasetOrder {
		infos = append(infos, DatasetInfo{
			ID:   id,
			Name: id,
		})
	}
	return infos
}
