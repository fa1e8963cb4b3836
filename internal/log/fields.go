package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldQuery     = "query"
	FieldUserAgent = "user_agent"
	FieldReferer   = "referer"
	FieldError     = "error"
	FieldOperation = "operation"

	FieldSource   = "source"
	FieldFilename = "filename"
	FieldEntry    = "entry"
	FieldBytes    = "bytes"
	FieldRows     = "rows"
	FieldDropped  = "dropped"
	FieldTotal    = "total"
	FieldVersion  = "version"
	FieldRef      = "ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentIngest   = "ingest"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
	ComponentTemplate = "template"
	ComponentWorker   = "worker"
)

// Operations defines standard operation names
const (
	OpIngest  = "ingest"
	OpSummary = "summary"
	OpRender  = "render"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUpload adds the fields describing an uploaded statement.
func (f LogFields) WithUpload(filename string, size int64) LogFields {
	f[FieldFilename] = filename
	f[FieldBytes] = size
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
