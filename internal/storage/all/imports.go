// Package all wires every built-in storage backend into the storage
// registry. Import it for side effects:
//
//	import _ "greenroute/internal/storage/all"
//
// after which storage.New and storage.EnsureTable accept the kinds
// "sqlite", "postgres" and "mssql".
package all

import (
	_ "greenroute/internal/storage/mssql"
	_ "greenroute/internal/storage/postgres"
	_ "greenroute/internal/storage/sqlite"
)
