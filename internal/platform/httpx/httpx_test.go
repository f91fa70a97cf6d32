package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, "x", target.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.ErrorIs(t, DecodeJSON(req, &target), ErrBadRequest)
}

func TestMapperHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection reset"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.Equal(t, "Internal Error", env.Error)
}

func TestMapperUsesFirstMatch(t *testing.T) {
	notFound := errors.New("missing")
	m := append(Mapper{{Err: notFound, Status: http.StatusNotFound, Label: "Not Found"}}, DefaultKinds...)

	rec := httptest.NewRecorder()
	m.RespondError(rec, fmt.Errorf("%w: account 9", notFound), "detail")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "missing: account 9", env.Error)
	require.Equal(t, []string{"detail"}, env.Details)
}
