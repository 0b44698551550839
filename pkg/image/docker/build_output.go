package docker

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// buildOutput is one message of the daemon's build output stream.
type buildOutput struct {
	Stream      string          `json:"stream"`
	Error       string          `json:"error"`
	ErrorDetail json.RawMessage `json:"errorDetail"`
	Aux         struct {
		ID string `json:"ID"`
	} `json:"aux"`
}

// streamBuildOutput consumes the build stream, logging step lines and
// returning the built image identifier.
func streamBuildOutput(reader io.Reader, logger *slog.Logger) (string, error) {
	decoder := json.NewDecoder(reader)
	var imageID string

	for {
		var out buildOutput
		if err := decoder.Decode(&out); err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("decoding build output: %w", err)
		}

		if out.Error != "" {
			return "", fmt.Errorf("build error: %s", out.Error)
		}
		if out.Aux.ID != "" {
			imageID = out.Aux.ID
		}
		if stream := strings.TrimSpace(out.Stream); stream != "" {
			if strings.HasPrefix(stream, "Step") || strings.HasPrefix(stream, "Successfully") {
				logger.Debug("build output", "line", stream)
			}
		}
	}
	return imageID, nil
}
