package httpx

import (
	"errors"
	"net/http"
)

// Transport-level sentinels raised before a request reaches a service.
var (
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)

// Kind pairs a sentinel with the status and label it maps to.
type Kind struct {
	Err    error
	Status int
	Label  string
}

// Mapper resolves errors to statuses with errors.Is, first match wins.
type Mapper []Kind

// DefaultKinds covers the transport sentinels.
var DefaultKinds = Mapper{
	{Err: ErrBadRequest, Status: http.StatusBadRequest, Label: "Bad Request"},
	{Err: ErrConflict, Status: http.StatusConflict, Label: "Conflict"},
}

// Resolve returns the status and label for err. Unknown errors are 500.
func (m Mapper) Resolve(err error) (int, string) {
	for _, k := range m {
		if errors.Is(err, k.Err) {
			return k.Status, k.Label
		}
	}
	return http.StatusInternalServerError, "Internal Error"
}

// RespondError writes err as a failed envelope. Messages of unknown errors are
// hidden from clients.
func (m Mapper) RespondError(w http.ResponseWriter, err error, details ...string) {
	status, label := m.Resolve(err)
	if status == http.StatusInternalServerError {
		Error(w, status, label)
		return
	}
	Error(w, status, err.Error(), details...)
}

// RespondError maps transport errors using DefaultKinds.
func RespondError(w http.ResponseWriter, err error) {
	DefaultKinds.RespondError(w, err)
}
