// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across services through a
// single factory, New, that creates a *slog.Logger configured by a set of
// Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from
//     a context value (for example a trace id) every time Handle is invoked.
//
// New first builds the concrete handler, slog.NewTextHandler or
// slog.NewJSONHandler, then wraps it with LogHandlerDecorator which executes
// any registered ContextExtractor callbacks before delegating.
//
// Helper constructors such as Group, Error, TemplateID and SnapshotID live
// in attr.go and keep attribute naming consistent across the codebase.
//
// # Usage
//
//	import "github.com/requil/requil/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithDevelopment("send-service"),
//	        logger.WithContextValue("trace_id", ctxKeyTraceID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    ctx := context.WithValue(context.Background(), ctxKeyTraceID, "abc-123")
//	    log.InfoContext(ctx, "batch dispatched",
//	        logger.JobID(jobID),
//	        logger.Duration(time.Since(start)),
//	    )
//	}
//
// Helper functions Error and Errors produce attributes only when the
// supplied error value is non-nil allowing calls like:
//
//	log.Info("operation succeeded", logger.Error(err))
//
// without an additional nil check.
package logger
