// Package migrations embeds the SurrealDB schema files applied by
// database.Migrate at startup and by the test database helper.
package migrations

import "embed"

//go:embed *.surql
var FS embed.FS
