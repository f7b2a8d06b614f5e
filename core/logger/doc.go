// Package logger builds the application's zap logger.
//
// The logger is configured from the log section of the application config:
// level selects the zap preset (debug -> development, otherwise production)
// and format selects console or JSON encoding. WithRayID decorates a logger
// with the per-request ray id placed in Fiber locals by the rayid middleware.
package logger
