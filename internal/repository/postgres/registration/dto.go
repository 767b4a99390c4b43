package registration

import (
	"github.com/Azure/go-autorest/autorest/date"
)

type Filter struct {
	Limit   *int
	Offset  *int
	Page    *int
	Search  *string
	Session *string
	Date    *date.Date
}

type GetListResponse struct {
	ID           int     `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	FullName     *string `json:"full_name"`
	Department   *string `json:"department"`
	Session      string  `json:"session"`
	WorkDay      string  `json:"work_day"`
	RegisteredAt string  `json:"registered_at"`
	RegisteredBy *int    `json:"registered_by"`
}

type StatisticsResponse struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	Source string         `json:"source"`
}
