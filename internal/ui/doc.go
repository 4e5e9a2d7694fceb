// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The [Model] is the terminal [controller.Renderer]: it owns a [controller.Controller] and redraws
// from the latest [controller.Screen] it was handed. Every controller call happens inside Update, so
// the only work done off the event loop is the recommendation request itself, which returns its
// result as a message carrying the submission's ticket.
//
// Screens follow the controller states:
//  1. Welcome : prompt input and numbered suggestions
//  2. Loading : spinner while the request is in flight
//  3. Results : scrollable playlist with match bars
//  4. Error : the failure message
//
// Keys: enter submits, esc or ctrl+r starts over, 1-9 pick a suggestion and q quits while the
// input is empty. ctrl+c always quits.
package ui
