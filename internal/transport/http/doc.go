// Package http implements the HTTP handlers of the GradeGraph web service.
//
// Handlers stay thin: they validate path and query parameters with the
// shared validator, call a service interface and render the result with
// go-chi/render as {"status":"success","data":...}. Failures go through
// errors.ErrorHandler, which answers with RFC 7807 problem details.
//
// Routes, relative to where the app mounts them:
//
//	/api/uploads                          POST upload, GET history
//	/api/uploads/{id}                     GET summary, DELETE evict
//	/api/uploads/{id}/dashboard
//	/api/uploads/{id}/subjects[/{subject}/exam-types|marks|summary|performers]
//	/api/uploads/{id}/students?q=
//	/api/uploads/{id}/leaderboard?category=&order=&limit=
//	/api/uploads/{id}/insights
//	/api/uploads/{id}/report
//	/api/uploads/{id}/export/{kind}
//	/health, /health/ready, /health/live, /health/version
//
// {id} is an upload UUID or "latest".
package http
