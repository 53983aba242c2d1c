package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/deposit/repository"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Repository interface {
	CreateProduct(ctx context.Context, in deposit.NewProduct) (deposit.Product, error)
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]deposit.Product, error)
	CountProducts(ctx context.Context, active *bool) (int64, error)
	ListCompanies(ctx context.Context) ([]deposit.Company, error)
	ListUsers(ctx context.Context) ([]deposit.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, event deposit.ProductEvent) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	created   prometheus.Counter
}

func New(repo Repository, publisher Publisher, logger *slog.Logger, created prometheus.Counter) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		created:   created,
	}
}

func validate(in deposit.NewProduct) (deposit.NewProduct, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Packaging = deposit.Packaging(strings.ToLower(string(in.Packaging)))

	switch {
	case in.Name == "":
		return in, fmt.Errorf("%w: name is required", deposit.ErrInvalidProduct)
	case !in.Packaging.Valid():
		return in, fmt.Errorf("%w: unknown packaging %q", deposit.ErrInvalidProduct, in.Packaging)
	case in.Deposit < 0:
		return in, fmt.Errorf("%w: deposit must not be negative", deposit.ErrInvalidProduct)
	case in.Volume <= 0:
		return in, fmt.Errorf("%w: volume must be positive", deposit.ErrInvalidProduct)
	case in.CompanyID <= 0 || in.RegisteredByID <= 0:
		return in, fmt.Errorf("%w: company and registering user are required", deposit.ErrInvalidProduct)
	}
	return in, nil
}

func (s *Service) CreateProduct(ctx context.Context, in deposit.NewProduct) (deposit.Product, error) {
	in, err := validate(in)
	if err != nil {
		return deposit.Product{}, err
	}

	product, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return deposit.Product{}, fmt.Errorf("repo create: %w", err)
	}

	if err := s.publisher.Publish(ctx, deposit.ProductEvent{
		EventType: deposit.EventCreated,
		ProductID: product.ID,
		Name:      product.Name,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("publish product_created event failed",
			"product_id", product.ID,
			"error", err,
		)
	}

	s.created.Inc()
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, q deposit.ProductQuery) ([]deposit.Product, deposit.Pagination, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, err := s.repo.ListProducts(ctx, repository.ProductFilter{
		Active: q.Active,
		Sort:   q.Sort,
		Order:  q.Order,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, deposit.Pagination{}, fmt.Errorf("repo list: %w", err)
	}

	total, err := s.repo.CountProducts(ctx, q.Active)
	if err != nil {
		return nil, deposit.Pagination{}, fmt.Errorf("repo count: %w", err)
	}

	return items, deposit.NewPagination(page, limit, total), nil
}

func (s *Service) ListCompanies(ctx context.Context) ([]deposit.Company, error) {
	list, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo list companies: %w", err)
	}
	return list, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]deposit.User, error) {
	list, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo list users: %w", err)
	}
	return list, nil
}
