package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// Error codes returned in ErrorDetail.Code.
const (
	codeBadRequest          = "bad_request"
	codeValidation          = "validation_error"
	codeInvalidPeriod       = "invalid_period"
	codeNotFound            = "not_found"
	codeUnavailable         = "unavailable"
	codeIllegalTransition   = "illegal_transition"
	codeTooEarly            = "too_early"
	codeConcurrencyConflict = "concurrency_conflict"
	codePayloadTooLarge     = "payload_too_large"
	codeInternal            = "internal_error"
)

// errorMapping ties a domain sentinel to its HTTP status and error code.
// Order matters only if an error wraps more than one sentinel.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrInvalidPeriod, http.StatusUnprocessableEntity, codeInvalidPeriod},
	{domain.ErrValidation, http.StatusUnprocessableEntity, codeValidation},
	{domain.ErrUnavailable, http.StatusConflict, codeUnavailable},
	{domain.ErrIllegalTransition, http.StatusConflict, codeIllegalTransition},
	{domain.ErrTooEarly, http.StatusConflict, codeTooEarly},
	{domain.ErrConcurrencyConflict, http.StatusConflict, codeConcurrencyConflict},
}

// errorResponse maps err to the error response of the domain sentinel it
// wraps. Anything else is returned as-is for the StrictHandler's response
// error handler to log and turn into a 500.
func errorResponse(err error) (ResponseObject, error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return errorBody(m.status, m.code, unwrapMessage(err, m.target)), nil
		}
	}
	return nil, err
}

// validationResponse returns 422 for a request body that parsed but failed
// its field rules.
func validationResponse(err error) ResponseObject {
	return errorBody(http.StatusUnprocessableEntity, codeValidation, describeValidation(err))
}

// badRequestResponse returns 400 for input the handler rejects itself.
func badRequestResponse(message string) ResponseObject {
	return errorBody(http.StatusBadRequest, codeBadRequest, message)
}

func errorBody(status int, code, message string) ErrorJSONResponse {
	return ErrorJSONResponse{StatusCode: status, Body: ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}}
}

// writeError writes an error body directly, for failures that happen before
// a ResponseObject exists.
func writeError(w http.ResponseWriter, status int, code, message string) {
	_ = errorBody(status, code, message).VisitResponse(w)
}

// unwrapMessage extracts the human-readable part after the sentinel.
// e.g. "service.ReservationService.Create: invalid period: pickup date is in the past"
// → "pickup date is in the past"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// describeValidation turns validator output into "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", fieldName(fe.Namespace()), rule))
	}
	return strings.Join(parts, "; ")
}

// fieldName drops the root struct name from a validator namespace,
// e.g. "CreateReservationRequest.total_price.currency" → "total_price.currency".
func fieldName(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
