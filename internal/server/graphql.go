package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/tinnou/router/internal/core/domain"
	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/upstream"
)

// MaxBodyBytes caps the size of a POSTed operation.
const MaxBodyBytes = 1 << 20

// Error codes for requests rejected before the pipeline runs.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUpstreamFailure = "UPSTREAM_REQUEST_FAILED"
)

// GraphQLHandler decodes GraphQL-over-HTTP requests into operations and
// hands them to the pipeline.
type GraphQLHandler struct {
	next   ports.Handler
	logger *slog.Logger
}

// NewGraphQLHandler creates the /graphql endpoint around next.
func NewGraphQLHandler(next ports.Handler, logger *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{next: next, logger: logger}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		op  *domain.Operation
		err error
	)
	switch r.Method {
	case http.MethodGet:
		op, err = operationFromQuery(r)
	case http.MethodPost:
		op, err = operationFromBody(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		AddError(r.Context(), err)
		writeResponse(w, domain.NewErrorResponse(http.StatusBadRequest, &gqlerror.Error{
			Message:    err.Error(),
			Extensions: map[string]interface{}{"code": CodeBadRequest},
		}))
		return
	}

	ctx := upstream.WithForwardedHeaders(r.Context(), r.Header)

	resp, err := h.next.Serve(ctx, op)
	if err != nil {
		AddError(ctx, err)
		h.logger.ErrorContext(ctx, "graphql request failed",
			slog.String("request_id", GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
		writeResponse(w, domain.NewErrorResponse(http.StatusBadGateway, &gqlerror.Error{
			Message:    "upstream request failed",
			Extensions: map[string]interface{}{"code": CodeUpstreamFailure},
		}))
		return
	}

	writeResponse(w, resp)
}

func operationFromBody(w http.ResponseWriter, r *http.Request) (*domain.Operation, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil, fmt.Errorf("unsupported content type %q", ct)
		}
	}

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()

	var op domain.Operation
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&op); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return &op, nil
}

// operationFromQuery reads the GET transport: variables and extensions are
// JSON-encoded URL parameters.
func operationFromQuery(r *http.Request) (*domain.Operation, error) {
	q := r.URL.Query()
	op := &domain.Operation{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}

	for _, p := range []struct {
		name string
		dst  *map[string]any
	}{
		{"variables", &op.Variables},
		{"extensions", &op.Extensions},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(p.dst); err != nil {
			return nil, fmt.Errorf("invalid %s parameter: %w", p.name, err)
		}
	}

	return op, nil
}

func writeResponse(w http.ResponseWriter, resp *domain.Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
