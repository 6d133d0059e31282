// Package account defines the account record, the role hierarchy and the
// UserDirectory contract used for login and role refresh.
//
// Roles form a strict total order: Free < VIP < Admin. A role includes every
// capability of the roles below it, so Admin implies VIP implies Free.
//
// Two directories are provided:
//
//   - MemoryDirectory keeps accounts in process memory with bcrypt password
//     hashes. It is useful for tests and local development.
//   - PostgresDirectory stores accounts in PostgreSQL through a pgx pool.
//     Its schema lives in the embedded Migrations filesystem and is applied
//     with pg.Migrate.
//
// # Usage
//
//	dir := account.NewMemoryDirectory()
//	acc, err := dir.Add(ctx, "jane@example.com", "secret-pass", "Jane", account.RoleFree)
//	if err != nil {
//		// handle error
//	}
//
//	acc, err = dir.Authenticate(ctx, "jane@example.com", "secret-pass")
//	switch {
//	case errors.Is(err, account.ErrInvalidCredentials):
//		// wrong email or password
//	case errors.Is(err, account.ErrUnavailable):
//		// directory unreachable
//	}
//
// # Errors
//
// Directories return ErrAccountNotFound, ErrInvalidCredentials and
// ErrUnavailable. Backend failures are joined with ErrUnavailable so callers
// can tell a missing account from an unreachable directory.
package account
