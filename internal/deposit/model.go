package deposit

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidProduct = errors.New("invalid product")
)

const (
	EventsExchange = "deposit.products.events"
	EventCreated   = "product_created"
)

type Packaging string

const (
	PackagingPET   Packaging = "pet"
	PackagingCan   Packaging = "can"
	PackagingGlass Packaging = "glass"
	PackagingTetra Packaging = "tetra"
	PackagingOther Packaging = "other"
)

var Packagings = []Packaging{PackagingPET, PackagingCan, PackagingGlass, PackagingTetra, PackagingOther}

func (p Packaging) Valid() bool {
	for _, known := range Packagings {
		if p == known {
			return true
		}
	}
	return false
}

// Flag is the product active flag. Older backends send 0|1, so decoding accepts
// both forms; encoding always produces a JSON boolean.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("active flag: unexpected value %s", data)
	}
	return nil
}

type Product struct {
	ID             int64     `json:"id" example:"1"`
	CompanyID      int64     `json:"companyId" example:"1"`
	RegisteredByID int64     `json:"registeredById" example:"1"`
	Name           string    `json:"name" example:"Fresh Cola"`
	Packaging      Packaging `json:"packaging" example:"pet"`
	Deposit        int64     `json:"deposit" example:"25"`
	Volume         int64     `json:"volume" example:"500"`
	RegisteredAt   time.Time `json:"registeredAt" example:"2024-01-05T00:00:00Z"`
	Active         Flag      `json:"active" swaggertype:"boolean" example:"true"`
}

type NewProduct struct {
	Name           string    `json:"name" binding:"required" example:"Fresh Cola"`
	Packaging      Packaging `json:"packaging" binding:"required" example:"pet"`
	Deposit        int64     `json:"deposit" example:"25"`
	Volume         int64     `json:"volume" binding:"required" example:"500"`
	CompanyID      int64     `json:"companyId" binding:"required" example:"1"`
	RegisteredByID int64     `json:"registeredById" binding:"required" example:"1"`
}

type Company struct {
	ID           int64     `json:"id" example:"1"`
	Name         string    `json:"name" example:"Nordic Drinks"`
	RegisteredAt time.Time `json:"registeredAt" example:"2024-01-05T00:00:00Z"`
}

type User struct {
	ID        int64     `json:"id" example:"1"`
	CompanyID int64     `json:"companyId" example:"1"`
	FirstName string    `json:"firstName" example:"Ada"`
	LastName  string    `json:"lastName" example:"Lovelace"`
	Email     string    `json:"email" example:"ada@example.com"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-05T00:00:00Z"`
}

type SortField string

const (
	SortNone         SortField = ""
	SortName         SortField = "name"
	SortRegisteredAt SortField = "registeredAt"
)

func (s SortField) Valid() bool {
	return s == SortNone || s == SortName || s == SortRegisteredAt
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// ProductQuery holds the GET /api/products parameters. Zero values mean "not sent".
type ProductQuery struct {
	Page   int
	Limit  int
	Active *bool
	Sort   SortField
	Order  SortOrder
}

type Pagination struct {
	CurrentPage     int   `json:"currentPage" example:"1"`
	TotalPages      int   `json:"totalPages" example:"3"`
	TotalItems      int64 `json:"totalItems" example:"42"`
	ItemsPerPage    int   `json:"itemsPerPage" example:"10"`
	HasNextPage     bool  `json:"hasNextPage" example:"true"`
	HasPreviousPage bool  `json:"hasPreviousPage" example:"false"`
}

func NewPagination(page, perPage int, total int64) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    perPage,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
