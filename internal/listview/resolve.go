package listview

import (
	"errors"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/querycache"
)

const FailedToLoad = "Failed to load products"

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

type View struct {
	Status     Status
	Items      []deposit.Product
	Pagination deposit.Pagination
	// Message is the server or transport message when Status is error.
	Message string
}

var errUnexpectedPayload = errors.New("unexpected payload")

// Resolve maps the latest snapshot to what the list shows. A snapshot for
// other parameters than state's is treated as still loading, so a late
// response for superseded parameters never shows.
func Resolve(state State, snap querycache.Snapshot) View {
	if snap.Key != state.RequestParams().Key() {
		return View{Status: StatusLoading}
	}
	return FromSnapshot(snap, FailedToLoad)
}

// FromSnapshot maps any products snapshot to a view. Transport errors without
// a server message show fallback.
func FromSnapshot(snap querycache.Snapshot, fallback string) View {
	switch snap.Status {
	case querycache.StatusIdle, querycache.StatusLoading:
		return View{Status: StatusLoading}
	case querycache.StatusError:
		return View{Status: StatusError, Message: apiclient.Message(snap.Err, fallback)}
	}

	result, ok := querycache.Value[deposit.Result[[]deposit.Product]](snap)
	if !ok {
		return View{Status: StatusError, Message: errUnexpectedPayload.Error()}
	}
	return FromResult(result)
}

// FromResult maps a settled products result to a view.
func FromResult(result deposit.Result[[]deposit.Product]) View {
	switch r := result.(type) {
	case deposit.Ok[[]deposit.Product]:
		var pagination deposit.Pagination
		if r.Pagination != nil {
			pagination = *r.Pagination
		}
		if len(r.Data) == 0 {
			return View{Status: StatusEmpty, Pagination: pagination}
		}
		return View{Status: StatusReady, Items: r.Data, Pagination: pagination}
	case deposit.Failed[[]deposit.Product]:
		return View{Status: StatusError, Message: r.Message}
	default:
		return View{Status: StatusError, Message: errUnexpectedPayload.Error()}
	}
}

func (v View) Loading() bool { return v.Status == StatusLoading }

// HasPrevious reports whether the previous-page control is enabled.
func (v View) HasPrevious(page int) bool {
	return !v.Loading() && page > 1
}

// HasNext reports whether the next-page control is enabled.
func (v View) HasNext(page int) bool {
	return !v.Loading() && page < v.Pagination.TotalPages
}
