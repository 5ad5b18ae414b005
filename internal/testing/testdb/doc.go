// Package testdb provides isolated SurrealDB databases for tests that need
// real query behavior: guarded transactions, unique indexes and the schema
// assertions in the migrations.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t) // skipped when no server is reachable
//	    users := repository.NewUserRepository(tdb.DB)
//	}
//
// Each TestDB lives in its own namespace with the embedded migrations
// applied, and is removed when the test ends.
//
// Environment variables:
//
//	TEST_DB_HOST     - SurrealDB host (default: localhost)
//	TEST_DB_PORT     - SurrealDB port (default: 8000)
//	TEST_DB_USER     - SurrealDB username (default: root)
//	TEST_DB_PASSWORD - SurrealDB password (default: root)
//	TEST_DB_REQUIRED - fail rather than skip when the server is down
package testdb
