package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/middleware"
	"github.com/moneymanager/moneymanager/internal/service"
)

// resource names a record type in error bodies and logs.
type resource struct {
	singular string // "transaction"
	plural   string // "transactions"
	notFound string // "Transaction not found"
}

var (
	transactionResource = resource{singular: "transaction", plural: "transactions", notFound: "Transaction not found"}
	categoryResource    = resource{singular: "category", plural: "categories", notFound: "Category not found"}
)

// handleServiceError maps service errors to HTTP responses. op is the verb
// used in the 500 body, e.g. "update" gives "Failed to update transaction".
// List failures use the plural, matching "Failed to fetch transactions".
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, res resource, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, res.notFound)
	case errors.Is(err, service.ErrNoOwner):
		writeError(w, http.StatusUnauthorized, "No token provided")
	default:
		name := res.singular
		if op == "fetch" {
			name = res.plural
		}
		logger.Error("request failed",
			slog.String("op", op),
			slog.String("resource", res.singular),
			slog.String("error", err.Error()),
			slog.String("subject", auth.SubjectFromContext(r.Context())),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Failed to "+op+" "+name)
	}
}

// identity returns the caller identity set by the auth middleware. A missing
// identity is the zero value, which every service method rejects.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}
