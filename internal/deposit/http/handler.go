package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"deposit-dashboard/internal/deposit"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type DepositService interface {
	CreateProduct(ctx context.Context, in deposit.NewProduct) (deposit.Product, error)
	ListProducts(ctx context.Context, q deposit.ProductQuery) ([]deposit.Product, deposit.Pagination, error)
	ListCompanies(ctx context.Context) ([]deposit.Company, error)
	ListUsers(ctx context.Context) ([]deposit.User, error)
}

type Handler struct {
	service DepositService
}

func NewHandler(svc DepositService) *Handler {
	return &Handler{service: svc}
}

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"failed to get products"`
}

type productResponse struct {
	Success bool            `json:"success" example:"true"`
	Data    deposit.Product `json:"data"`
}

type listProductsResponse struct {
	Success    bool               `json:"success" example:"true"`
	Data       []deposit.Product  `json:"data"`
	Pagination deposit.Pagination `json:"pagination"`
}

type listCompaniesResponse struct {
	Success bool              `json:"success" example:"true"`
	Data    []deposit.Company `json:"data"`
	Total   int64             `json:"total" example:"1"`
}

type listUsersResponse struct {
	Success bool           `json:"success" example:"true"`
	Data    []deposit.User `json:"data"`
	Total   int64          `json:"total" example:"1"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Success: false, Error: message})
}

// CreateProduct godoc
// @Summary      Register a new deposit product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      deposit.NewProduct  true  "Product data"
// @Success      201   {object}  productResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var req deposit.NewProduct
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, deposit.ErrInvalidProduct) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, productResponse{Success: true, Data: product})
}

// ListProducts godoc
// @Summary      List products with filtering, sorting and pagination
// @Tags         products
// @Produce      json
// @Param        page    query     int     false  "Page number"     default(1)
// @Param        limit   query     int     false  "Items per page"  default(10)
// @Param        active  query     bool    false  "Filter by active flag"
// @Param        sort    query     string  false  "Sort field"  Enums(name, registeredAt)
// @Param        order   query     string  false  "Sort order"  Enums(asc, desc)
// @Success      200     {object}  listProductsResponse
// @Failure      500     {object}  errorResponse
// @Router       /api/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	query := deposit.ProductQuery{
		Page:   parseQueryInt(c.Query("page"), defaultPage),
		Limit:  parseQueryInt(c.Query("limit"), defaultLimit),
		Active: parseQueryBool(c.Query("active")),
		Sort:   deposit.SortField(c.Query("sort")),
		Order:  deposit.SortOrder(c.Query("order")),
	}
	if !query.Sort.Valid() {
		query.Sort = deposit.SortNone
	}
	if !query.Order.Valid() {
		query.Order = deposit.OrderAsc
	}

	items, pagination, err := h.service.ListProducts(c.Request.Context(), query)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to get products")
		return
	}

	c.JSON(http.StatusOK, listProductsResponse{
		Success:    true,
		Data:       items,
		Pagination: pagination,
	})
}

// ListCompanies godoc
// @Summary      List registered companies
// @Tags         companies
// @Produce      json
// @Success      200  {object}  listCompaniesResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/companies [get]
func (h *Handler) ListCompanies(c *gin.Context) {
	list, err := h.service.ListCompanies(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to get companies")
		return
	}
	c.JSON(http.StatusOK, listCompaniesResponse{Success: true, Data: list, Total: int64(len(list))})
}

// ListUsers godoc
// @Summary      List registered users
// @Tags         users
// @Produce      json
// @Success      200  {object}  listUsersResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to get users")
		return
	}
	c.JSON(http.StatusOK, listUsersResponse{Success: true, Data: list, Total: int64(len(list))})
}

func parseQueryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// parseQueryBool accepts the same spellings as deposit.Flag; anything else means "no filter".
func parseQueryBool(raw string) *bool {
	var value bool
	switch raw {
	case "true", "1":
		value = true
	case "false", "0":
		value = false
	default:
		return nil
	}
	return &value
}
