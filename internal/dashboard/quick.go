package dashboard

import (
	"math/rand/v2"

	"deposit-dashboard/internal/deposit"
)

var (
	quickBrands  = []string{"Fresh", "Super", "Best", "Premium", "Classic", "Royal", "Pure"}
	quickNames   = []string{"Cola", "Water", "Juice", "Beer", "Soda", "Lemonade", "Ice Tea"}
	quickVolumes = []int64{250, 330, 500, 750, 1000, 1500, 2000}
)

const (
	quickCompanyID = 1
	quickUserID    = 1
)

// RandomProduct builds the throwaway product registered by the quick action.
func RandomProduct() deposit.NewProduct {
	return deposit.NewProduct{
		Name:           pick(quickBrands) + " " + pick(quickNames),
		Packaging:      pick(deposit.Packagings),
		Deposit:        int64(rand.IntN(4)+1) * 25,
		Volume:         pick(quickVolumes),
		CompanyID:      quickCompanyID,
		RegisteredByID: quickUserID,
	}
}

func pick[T any](items []T) T {
	return items[rand.IntN(len(items))]
}
