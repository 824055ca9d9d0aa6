// Package chatapi is the HTTP client for a chat backend's POST /api/chat.
//
// Chat returns the reply text extracted from whatever JSON the backend
// sends back (see ExtractReply). Errors fall into three groups:
//
//   - *TransportError: the request never produced a response (retryable)
//   - ErrNetworkUnstable: 502 or 404 from a proxy in front of the backend
//   - *StatusError and ErrEmptyReply: the backend answered but unusably
//
// Every request carries the X-Client-ID header and, when configured, a
// bearer token.
package chatapi
