package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// TokenFunc receives each non-empty response fragment in arrival order.
type TokenFunc func(token string) error

// GenerateStream runs a streaming completion. onToken is called for every
// fragment; the call returns nil only after the server sent a chunk with
// done=true. A body that ends earlier is reported as ErrStreamAborted.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, onToken TokenFunc) error {
	req.Stream = true
	if req.Options.empty() {
		req.Options = nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/generate", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "generate"); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk GenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logf("skipping malformed stream line: %s", line)
			continue
		}
		if chunk.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: chunk.Error}
		}
		if chunk.Response != "" {
			if err := onToken(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return &ClientError{Type: ErrTypeTimeout, Message: "stream interrupted", Cause: ctx.Err()}
		}
		return &ClientError{Type: ErrTypeStreamAborted, Message: "stream read failed", Cause: err}
	}
	return ErrStreamAborted
}
