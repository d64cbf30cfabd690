package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/logging"
)

// maxErrorBody caps how much of a failed response ends up in an error message.
const maxErrorBody = 512

// ReadResponse reads the body of resp and closes it. Non-2xx responses
// become an *errors.APIError tagged with store and the request URL.
func ReadResponse(store string, resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger := logging.Default()
			if resp.Request != nil {
				logger = logging.FromContext(resp.Request.Context())
			}
			logger.Warn().Err(err).Str("store", store).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		apiErr := errors.NewAPIError(store, resp.StatusCode, msg)
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.String()
		}
		return nil, apiErr
	}

	return body, nil
}

// DecodeResponse decodes a JSON response into the target structure.
func DecodeResponse(store string, resp *http.Response, target any) error {
	body, err := ReadResponse(store, resp)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}
