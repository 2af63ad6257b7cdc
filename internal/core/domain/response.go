package domain

import (
	"encoding/json"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Response is what the pipeline hands back to the transport: either the
// downstream response relayed as-is or a synthesized error document.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type errorDocument struct {
	Errors gqlerror.List `json:"errors"`
}

// NewErrorResponse builds a GraphQL error document response.
func NewErrorResponse(status int, errs ...*gqlerror.Error) *Response {
	body, err := json.Marshal(errorDocument{Errors: errs})
	if err != nil {
		body = []byte(`{"errors":[{"message":"internal server error"}]}`)
	}

	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &Response{StatusCode: status, Header: h, Body: body}
}

// RejectionResponse renders a protocol rejection. Protocol failures are not
// transport failures, so the status is 200.
func RejectionResponse(err *APQError) *Response {
	return NewErrorResponse(http.StatusOK, err.GQLError())
}

// InternalErrorResponse is the generic failure returned for unexpected faults.
func InternalErrorResponse() *Response {
	return NewErrorResponse(http.StatusInternalServerError, &gqlerror.Error{
		Message:    "internal server error",
		Extensions: map[string]interface{}{"code": CodeInternalError},
	})
}
