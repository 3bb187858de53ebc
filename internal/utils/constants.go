package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// Log level names accepted by NewApplicationLogger.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes the fatal log entry of a failed run.
	ApplicationExecutionFailedMessage = "seshmux failed"
)
