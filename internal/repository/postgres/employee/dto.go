package employee

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
}

// ImportRow is one employee read from an uploaded sheet.
type ImportRow struct {
	EmployeeID string
	FullName   string
	Department string
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type GetListResponse struct {
	ID         int     `json:"id"          bun:"id"`
	EmployeeID string  `json:"employee_id" bun:"employee_id"`
	FullName   *string `json:"full_name"   bun:"full_name"`
	Department *string `json:"department"  bun:"department"`
	Registered bool    `json:"registered"  bun:"registered"`
}
