package pagination

type Pagination struct {
	PageSize int `form:"page_size,default=50" validate:"gte=1,lte=250"`
	Page     int `form:"page,default=1" validate:"gte=1"`
}

type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	HasMore    bool  `json:"has_more"`
}

func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = 50
	}
	if p.PageSize > 250 {
		p.PageSize = 250
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func BuildPageInfo(p Pagination, total int64) PageInfo {
	return PageInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
		HasMore:    int64(p.Offset()+p.PageSize) < total,
	}
}
