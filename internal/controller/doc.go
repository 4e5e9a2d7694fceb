// Package controller implements the view controller shared by every surface.
//
// A [Controller] owns exactly one [ScreenState] at a time:
//
//	Welcome ──submit──▶ Loading ──success──▶ Results
//	   ▲                   │                    │
//	   │                   └──failure──▶ Error  │
//	   └─────────────reset─────────────┴────────┘
//
// Every submission takes a new [Ticket]. Only the latest ticket may resolve the
// loading screen, so a slow response for an older prompt, or one that lands
// after a reset, is discarded instead of overwriting the screen.
package controller
