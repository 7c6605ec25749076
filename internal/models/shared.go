package models

// DateLayout is the wire and storage format for scheduling dates.
const DateLayout = "2006-01-02"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
