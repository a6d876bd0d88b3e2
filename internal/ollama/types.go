package ollama

// Tag is one entry of GET /api/tags.
type Tag struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Size  int64  `json:"size"`
}

type tagsResponse struct {
	Models []Tag `json:"models"`
}

// Options are the runtime parameters Ollama reads from the "options" object.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumCtx      *int     `json:"num_ctx,omitempty"`
}

func (o *Options) empty() bool {
	return o == nil || (o.Temperature == nil && o.NumCtx == nil)
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

// GenerateChunk is one JSON line of a generate response. A non-streamed
// response is a single chunk with Done set.
type GenerateChunk struct {
	Model      string `json:"model"`
	CreatedAt  string `json:"created_at"`
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type modelRequest struct {
	Model  string `json:"model"`
	Stream *bool  `json:"stream,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}
