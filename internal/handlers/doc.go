// Package handlers serves the catalog over a JSON HTTP API.
//
// Routes are registered by [Handlers.Router]:
//
//	GET    /api/baskets                  list baskets
//	POST   /api/baskets                  {"name": ..., "dirs": [...]}, starts a scan (202)
//	GET    /api/baskets/{id}             one basket
//	DELETE /api/baskets/{id}             delete a basket and what only it reaches
//	GET    /api/baskets/{id}/folders     folders under a basket
//	GET    /api/folders                  every folder
//	GET    /api/items                    ?dir=&recursive=&ext=&basket=&deleted=&limit=&offset=
//	GET    /api/items/{id}               one item
//	DELETE /api/items/{id}               soft delete
//	GET    /api/items/{id}/thumbnail     cached JPEG thumbnail
//	GET    /api/items/{id}/file          original file, with range requests
//	GET    /api/tasks                    ?status=pending|failed
//	POST   /api/tasks/rerun              drain the pending queue (202)
//	POST   /api/tasks/retry              requeue failed tasks and drain (202)
//	GET    /api/settings                 every preference
//	GET    /api/settings/{key}           one preference
//	PUT    /api/settings/{key}           {"value": ...}
//	DELETE /api/settings/{key}           remove a preference
//	GET    /api/stats                    catalog row counts
//	GET    /healthz, /livez, /version, /metrics
//
// Errors are JSON objects with an "error" field. Missing rows answer 404,
// rejected input 400.
package handlers
