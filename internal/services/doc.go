// Package services implements the client side of the playlist recommendation service.
//
// # Recommender Interface
//
// The view controller only depends on [Recommender], so tests and alternative backends can stand in for the HTTP client.
//
// # HTTP Implementation
//
// [RecommendationService] sends POST <endpoint> with {"prompt": "..."} and decodes the JSON body into [models.Recommendation].
// Every request carries a fresh X-Request-ID so a single submission can be traced through the backend logs.
// Outgoing calls pass through a [rate.Limiter] configured by service.rate_limit.
//
// The endpoint is explicit configuration (service.endpoint or MIXTAPE_ENDPOINT); the client never guesses it.
//
// # Error Handling
//
// Failures are split the way the error screen needs them:
//   - [TransportError] : network failure, unreadable body, malformed JSON (wraps [shared.ErrTransport])
//   - [ServiceError] : non-2xx status and/or success:false (wraps [shared.ErrService]), carrying the service message
//
// Empty prompts are rejected before any request with [shared.ErrEmptyPrompt].
// [UserMessage] picks the text to display for any of these.
package services
