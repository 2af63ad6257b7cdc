// Package domain holds the request, response and error types shared by the
// persisted query stage, its stores and the HTTP front.
package domain

// Operation is a single GraphQL request payload as received from a client.
// An empty Query means the client did not send a document.
type Operation struct {
	Query         string         `json:"query,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// HasQuery reports whether the operation carries a query document.
func (o *Operation) HasQuery() bool {
	return o != nil && o.Query != ""
}

// Clone returns a shallow copy. Variables and Extensions are shared with the
// original; only the top-level fields may be rewritten on the copy.
func (o *Operation) Clone() *Operation {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
