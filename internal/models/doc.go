// Package models defines the wire types exchanged with the recommendation service.
//
//   - [Recommendation] : the response body of POST /dj (success flag, echoed prompt, extracted preferences, ranked queue)
//   - [Preferences] : genre, mood, energy and tempo the service inferred from the prompt
//   - [Song] : one queue entry with its raw relevance score
//   - [Request] : the request body, built from a normalized prompt
//
// Scores arrive as JSON numbers, but [Score] also tolerates numeric strings and null so a sloppy backend degrades to a zero score instead of failing the whole response.
package models
