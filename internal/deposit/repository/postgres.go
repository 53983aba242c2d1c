package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deposit-dashboard/internal/deposit"
)

const healthCheckTimeout = 2 * time.Second

const productColumns = `id, company_id, registered_by_id, name, packaging, deposit, volume, registered_at, active`

var sortColumns = map[deposit.SortField]string{
	deposit.SortName:         "name",
	deposit.SortRegisteredAt: "registered_at",
}

// ProductFilter selects a page of products. Active nil means both states.
type ProductFilter struct {
	Active *bool
	Sort   deposit.SortField
	Order  deposit.SortOrder
	Limit  int
	Offset int
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (deposit.Product, error) {
	var (
		p      deposit.Product
		active bool
	)
	if err := row.Scan(
		&p.ID, &p.CompanyID, &p.RegisteredByID, &p.Name, &p.Packaging,
		&p.Deposit, &p.Volume, &p.RegisteredAt, &active,
	); err != nil {
		return deposit.Product{}, err
	}
	p.Active = deposit.Flag(active)
	return p, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, in deposit.NewProduct) (deposit.Product, error) {
	query := `
		INSERT INTO products (company_id, registered_by_id, name, packaging, deposit, volume)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	row := r.db.QueryRowContext(ctx, query,
		in.CompanyID, in.RegisteredByID, in.Name, string(in.Packaging), in.Deposit, in.Volume,
	)
	p, err := scanProduct(row)
	if err != nil {
		return deposit.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, f ProductFilter) ([]deposit.Product, error) {
	where, args := activeClause(f.Active)
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, where, orderClause(f.Sort, f.Order), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	list := make([]deposit.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) CountProducts(ctx context.Context, active *bool) (int64, error) {
	where, args := activeClause(active)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) ListCompanies(ctx context.Context) ([]deposit.Company, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, registered_at FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	list := make([]deposit.Company, 0)
	for rows.Next() {
		var c deposit.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]deposit.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, first_name, last_name, email, created_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	list := make([]deposit.User, 0)
	for rows.Next() {
		var u deposit.User
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func activeClause(active *bool) (string, []any) {
	if active == nil {
		return "", nil
	}
	return "WHERE active = $1", []any{*active}
}

// orderClause only ever emits whitelisted columns; id breaks ties so paging is stable.
func orderClause(sort deposit.SortField, order deposit.SortOrder) string {
	column, ok := sortColumns[sort]
	if !ok {
		return "id DESC"
	}
	dir := "ASC"
	if order == deposit.OrderDesc {
		dir = "DESC"
	}
	return strings.Join([]string{column + " " + dir, "id " + dir}, ", ")
}
