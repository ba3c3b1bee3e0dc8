package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// StatusError is returned by DecodeResponse for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Is reports ErrRateLimited for 429 responses.
func (e *StatusError) Is(target error) bool {
	return target == errors.ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// DecodeResponse decodes a JSON response into the target structure and
// closes the body.
func DecodeResponse(ctx context.Context, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
