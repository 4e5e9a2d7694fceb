// Package server provides HTTP routing, middleware and lifecycle for the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Any func(http.Handler) http.Handler fits, so chi's middleware package plugs in directly; [Defaults]
// assembles the stack used by `mixtape serve`.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. Routes are
// registered with [BasicRouter.Get] and [BasicRouter.Post], or [BasicRouter.Handle] for any other method.
//
// # Lifecycle
//
// [Run] serves until its context is cancelled and then drains in-flight requests within [ShutdownTimeout].
package server
