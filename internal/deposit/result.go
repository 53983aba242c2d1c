package deposit

// Result is the decoded outcome of an API call that reached the server.
// It is either Ok or Failed; consumers switch on the concrete type.
type Result[T any] interface {
	isResult(T)
}

type Ok[T any] struct {
	Data       T
	Pagination *Pagination
	Total      int64
}

func (Ok[T]) isResult(T) {}

type Failed[T any] struct {
	Message string
}

func (Failed[T]) isResult(T) {}

// Failure marks the result as retryable for the query cache.
func (f Failed[T]) Failure() string { return f.Message }

const defaultFailureMessage = "request failed"

// Envelope is the {success, ...} wire shape shared by every endpoint.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Total      *int64      `json:"total,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Result converts the envelope. Anything without success:true is a failure,
// whatever the transport said.
func (e Envelope[T]) Result() Result[T] {
	if !e.Success {
		msg := e.Error
		if msg == "" {
			msg = defaultFailureMessage
		}
		return Failed[T]{Message: msg}
	}
	ok := Ok[T]{Data: e.Data, Pagination: e.Pagination}
	if e.Total != nil {
		ok.Total = *e.Total
	}
	return ok
}

func OkEnvelope[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

func FailedEnvelope(message string) Envelope[any] {
	return Envelope[any]{Success: false, Error: message}
}
