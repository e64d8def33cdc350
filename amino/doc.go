// Package amino provides the REST client for the Amino global API.
//
// Endpoint:
//   - https://service.aminoapps.com/api/v1
//
// Every request carries a device identity header and, when a body is
// present, an HMAC signature over it (see the sign package). Failures map
// to typed errors: *APIError for api:statuscode responses and *ServerError
// for transport-level HTTP failures.
package amino
