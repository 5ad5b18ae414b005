// Package handler provides the HTTP handlers of the Ludoteca API.
//
// Handlers are grouped by audience: AuthHandler (/v1/auth), PublicHandler
// (/v1/public), RentalHandler (/v1/user and /v1/admin/rentals),
// CoordinatorHandler (/v1/coordinator), CenterHandler (/v1/admin/centers and
// /v1/super), CatalogHandler, AdminUsersHandler and StatsHandler. Each one
// exposes RegisterRoutes methods that take the middleware guarding them, so
// role checks live next to the routes they protect.
//
// # Response Format
//
// Every response uses one of two envelopes:
//
//	{"success": true,  "data": ..., "pagination": {...}}
//	{"success": false, "error": {"type": ..., "title": ..., "status": ..., "code": ...}}
//
// WriteData, WritePage and WriteList produce the first; WriteError and
// MapServiceError produce the second. Collections are never encoded as null.
//
// # Service Errors
//
// Handlers depend on the narrow interfaces in services.go and translate the
// sentinel errors of the service package through MapServiceError. Server
// errors are logged with the request path; their detail never reaches the
// client.
package handler
