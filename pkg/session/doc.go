// Package session holds the client-side proof of authentication: which
// account is logged in and the role cached from the directory at issue or
// refresh time.
//
// The Store contract has three operations: Save, Load and Clear. A missing
// session is reported as ErrSessionNotFound. Stores never surface decoding
// problems: a corrupt or foreign record is deleted and reported as absent.
//
// # Stores
//
//   - MemoryStore keeps the session in process memory.
//   - BlobStore serialises the session into a single key of a key-value
//     Backend. FileBackend gives durable process-local storage; the redis
//     package provides a go-redis backend; MemoryBackend is for tests.
//
// # Persisted layout
//
//	{"accountId":"<uuid>","role":"Free|VIP|Admin","issuedAt":"<RFC3339>"}
//
// # Usage
//
//	store := session.NewBlobStore(session.NewFileBackend("/var/lib/app/session.json"))
//
//	s, err := store.Load(ctx)
//	if errors.Is(err, session.ErrSessionNotFound) {
//		// not logged in
//	}
//
// Only the auth controller writes to a Store; every other component reads.
package session
