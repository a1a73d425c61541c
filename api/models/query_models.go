// api/models/query_models.go
package models

// --- Query Response Structs ---

// RowsAffectedResponse is returned for statements that do not produce rows.
type RowsAffectedResponse struct {
	RowsAffected int64 `json:"rowsAffected"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
