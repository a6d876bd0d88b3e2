package models

// ModelTag is one installed model as reported by models_list.
type ModelTag struct {
	Model string `json:"model"`
	Size  *int64 `json:"size,omitempty"`
}

// ModelArgs is the payload of model_pull and model_delete.
type ModelArgs struct {
	Model string `json:"model"`
}

// GenerateArgs is the payload of generate_text and generate_stream.
type GenerateArgs struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	NumCtx      *int     `json:"num_ctx,omitempty"`
	System      *string  `json:"system,omitempty"`
}

// GenerateArgsFrom fills the optional parameters from the settings.
func GenerateArgsFrom(s Settings, model, prompt string) GenerateArgs {
	if model == "" {
		model = s.DefaultModel
	}
	temp := s.Temperature
	numCtx := s.ContextLength
	args := GenerateArgs{
		Model:       model,
		Prompt:      prompt,
		Temperature: &temp,
		NumCtx:      &numCtx,
	}
	if s.System != "" {
		system := s.System
		args.System = &system
	}
	return args
}
