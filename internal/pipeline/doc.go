// Package pipeline provides the request gate that runs interception stages
// in front of GraphQL execution.
//
// # Architecture
//
// A Gate holds an ordered list of ports.Stage and one downstream
// ports.Handler. Each stage returns a ports.Decision:
//   - PassThrough: the stage is inert; the operation moves on unchanged
//   - Continue: the operation (possibly rewritten) moves on
//   - Reject: the gate answers with a GraphQL error response and stops
//
// The downstream handler is called exactly once for every request that no
// stage rejected, and never otherwise. A stage error is an internal fault;
// it is logged and answered with a generic 500 response.
//
// # Toggling
//
// The gate can be disabled at runtime (SetEnabled). A disabled gate skips
// all stages and forwards every operation unchanged, whatever its
// extensions carry.
package pipeline
