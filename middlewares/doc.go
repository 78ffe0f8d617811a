// Package middlewares provides net/http middleware for the request pipeline.
//
// Every middleware has the signature func(http.Handler) http.Handler and
// works with chi or a plain mux. The intended order is:
//
//	r.Use(middlewares.RequestID())
//	r.Use(middlewares.Recover(middlewares.WithRecoverErrorHandler(errs.Handle)))
//	r.Use(middlewares.ControlPanel(cpHosts, "admin"))
//	r.Use(middlewares.Classify(classifier))
//	r.Use(middlewares.CanonicalURL())
//
// # Request ID
//
// RequestID reuses an inbound X-Request-ID (or X-Correlation-ID) header or
// generates a UUID, stores it in the request context and echoes it back.
// RequestIDExtractor adds it to every log record.
//
// # Recover
//
// Recover converts panics into a *PanicError and hands it to an error
// handler, which decides how to log and respond.
//
// # Control panel, classification, canonical URLs
//
// ControlPanel flags requests addressed to the control panel by host or by
// path prefix. Classify turns the request into a *request.Request available
// through request.FromContext. CanonicalURL redirects requests whose route
// was given in the URL format that is not in effect.
package middlewares
