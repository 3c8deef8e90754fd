// Package http exposes the hostel desk REST API on a chi router.
//
// Public endpoints:
//   - GET /api/health, GET /metrics
//   - POST /api/auth/login/{student,admin,worker}, POST /api/auth/register/student:
//     respond with {"token","role","id","name","expiresAt"}.
//
// Everything else under /api requires an `Authorization: Bearer <token>` header and
// is guarded per route by RequireRoles:
//   - /api/students, /api/workers (including /{id}/tasks and /{id}/attendance)
//   - /api/rooms keyed by room number
//   - /api/complaints with assign, status, escalate and history sub-resources
//   - /api/emergencies and /api/notifications
//
// Success bodies are the entity or entity list itself. Errors always carry a
// "message" field, plus "errors" keyed by JSON field name for validation failures.
// DTOs live next to the handler that produces them.
package http
