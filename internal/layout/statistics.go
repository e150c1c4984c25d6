package layout

import (
	"encoding/json"
	"strconv"
)

// Statistics summarises cell occupancy for the layout
type Statistics struct {
	TotalCells    float64 `json:"total_cells"`
	OccupiedCells int     `json:"occupied_cells"`
	FreeCells     float64 `json:"free_cells"`
	SKUCount      int64   `json:"sku_count"`
}

var numericParams = []string{"area_count", "channel_count", "layer_count", "cell_count"}

// Statistics computes occupancy from the current document. skuCount comes
// from the SKU catalog.
func (s *Store) Statistics(skuCount int64) Statistics {
	doc := s.Load()

	defaults := DefaultGlobalParams()
	params := doc.GlobalParams()
	for _, key := range numericParams {
		if _, ok := params[key]; !ok {
			params[key] = defaults[key]
		}
	}

	areaCount := toNumber(params["area_count"], defaults["area_count"].(float64))
	cellCount := toNumber(params["cell_count"], defaults["cell_count"].(float64))
	total := areaCount * cellCount

	occupied := 0
	for _, shelf := range doc.Shelves() {
		obj, ok := shelf.(map[string]any)
		if !ok {
			continue
		}
		if cells, ok := obj["cells"].([]any); ok {
			occupied += len(cells)
		}
	}

	return Statistics{
		TotalCells:    total,
		OccupiedCells: occupied,
		FreeCells:     total - float64(occupied),
		SKUCount:      skuCount,
	}
}

func toNumber(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}
