// Package fixtures provides test data factories backed by the real
// repositories, for tests running against a testdb database.
//
//	tdb := testdb.New(t)
//	f := fixtures.New(tdb.DB)
//	center, coordinator := f.CreateActiveCenter(t)
//	inst := f.CreateInstance(t, center, f.CreateGame(t))
//	borrower := f.CreateUser(t, model.UserRoleUser)
//
// Every fixture user's password is DefaultPassword.
package fixtures
