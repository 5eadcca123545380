package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
)

// maxPostBody is the POST body size ceiling from spec §5: "POST body ≤ 1 MiB."
const maxPostBody = 1 << 20

// parseFormFields parses a multipart/form-data body into a flat map of
// field name to raw value. Non-text (file) parts are kept as raw bytes
// under the same map, since the POST-runner consumes form fields
// uninterpreted.
//
// This is a minimal stand-in for the form-field parser external
// collaborator the spec names but does not re-specify (§1): it handles
// one value per field and leaves duplicate-field semantics to the real
// collaborator.
func parseFormFields(body []byte, contentType string) (map[string][]byte, error) {
	if len(body) > maxPostBody {
		return nil, fmt.Errorf("backend: POST body exceeds %d bytes", maxPostBody)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("backend: parse content-type: %w", err)
	}
	if mediaType != "multipart/form-data" {
		return nil, fmt.Errorf("backend: unsupported content-type %q", mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, fmt.Errorf("backend: multipart content-type missing boundary")
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	fields := make(map[string][]byte)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("backend: read multipart part: %w", err)
		}

		name := part.FormName()
		value, err := io.ReadAll(part)
		_ = part.Close() //nolint:errcheck // best-effort close of an in-memory reader
		if err != nil {
			return nil, fmt.Errorf("backend: read form field %q: %w", name, err)
		}

		fields[name] = value
	}

	return fields, nil
}
