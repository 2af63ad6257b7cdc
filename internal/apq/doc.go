// Package apq implements Automatic Persisted Queries.
//
// A client that has sent a query once may afterwards send only its SHA-256
// hash in extensions.persistedQuery. The Protocol stage verifies hashes
// against submitted query text, registers verified text in a
// ports.QueryStore and rewrites hash-only operations back into full ones:
//
//	extension | query | decision
//	----------+-------+---------------------------------------------
//	absent    |   -   | PassThrough
//	v != 1    |   -   | Reject(PersistedQueryNotSupported)
//	v == 1    |  no   | hit: Continue(query filled in), miss: Reject(PersistedQueryNotFound)
//	v == 1    |  yes  | hash ok: store, Continue; else Reject(PersistedQueryHashMismatch)
//
// Text is only ever stored after its hash has been checked, so every entry
// in the store satisfies HashOf(text) == key.
package apq
