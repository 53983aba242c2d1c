package dashboard

import (
	"context"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/listview"
	"deposit-dashboard/internal/querycache"
)

const (
	companiesResource = "companies"
	usersResource     = "users"

	recentProductsLimit = 5
)

// API is the part of the deposit REST client the dashboard uses.
type API interface {
	ListProducts(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error)
	CreateProduct(ctx context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error)
	ListCompanies(ctx context.Context) (deposit.Result[[]deposit.Company], error)
	ListUsers(ctx context.Context) (deposit.Result[[]deposit.User], error)
	Health(ctx context.Context) error
}

type query struct {
	key   querycache.Key
	fetch querycache.FetchFunc
}

// productsQuery keys product listings under the products resource, so one
// invalidation after a create refreshes lists, stats and recent products alike.
func productsQuery(api API, q deposit.ProductQuery) query {
	return query{
		key: querycache.NewKey(listview.ProductsResource, apiclient.ProductQueryValues(q)),
		fetch: func(ctx context.Context) (any, error) {
			res, err := api.ListProducts(ctx, q)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}

func listQuery(api API, params listview.RequestParams) query {
	return productsQuery(api, params.Query())
}

func activeCountQuery(api API, active bool) query {
	return productsQuery(api, deposit.ProductQuery{Active: &active})
}

func recentProductsQuery(api API) query {
	active := true
	return productsQuery(api, deposit.ProductQuery{
		Limit:  recentProductsLimit,
		Active: &active,
		Sort:   deposit.SortRegisteredAt,
		Order:  deposit.OrderDesc,
	})
}

func companiesQuery(api API) query {
	return query{
		key: querycache.NewKey(companiesResource, nil),
		fetch: func(ctx context.Context) (any, error) {
			res, err := api.ListCompanies(ctx)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}

func usersQuery(api API) query {
	return query{
		key: querycache.NewKey(usersResource, nil),
		fetch: func(ctx context.Context) (any, error) {
			res, err := api.ListUsers(ctx)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}
