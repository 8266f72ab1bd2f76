package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nagito52/fleamarketsystem/internal/domain"
	"github.com/nagito52/fleamarketsystem/internal/payment"
)

const (
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInvalidRequest   = "invalid_request_body"
	codeInvalidID        = "invalid_id"
	codeForbidden        = "forbidden"
	codeInvalidState     = "invalid_state"
	codePaymentPending   = "payment_not_settled"
	codeProviderError    = "payment_provider_error"
	codeUnauthenticated  = "unauthenticated"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Provider detail never reaches the response body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrPaymentNotSettled):
		writeError(w, http.StatusConflict, codePaymentPending, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, codeInvalidState, err.Error())
	case errors.Is(err, payment.ErrProvider):
		writeError(w, http.StatusBadGateway, codeProviderError, "payment provider error")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
