package common

// Metadata describes one page of a listing. Pages is ceil(Total/limit).
type Metadata struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

func NewMetadata(total, page, limit int) Metadata {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}

	return Metadata{Total: total, Page: page, Pages: pages}
}
