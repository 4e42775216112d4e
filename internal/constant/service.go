package constant

const (
	// SlimHeaderKey is to indicate whether the current request shall be ignored by Sentry transaction tracing.
	// This is typically used by probes to avoid useless data being sent to Sentry.
	SlimHeaderKey = "X-Slim"

	// DateLayout is the layout of every str_date exchanged with clients.
	DateLayout = "2006-01-02"
)
