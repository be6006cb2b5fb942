package sensei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UploadRequest describes a multipart profile/rule file upload.
type UploadRequest struct {
	ProjectID int
	// Files maps the upload filename to its YAML content.
	Files map[string][]byte
	// IgnoreValidationErrors forwards the backend flag of the same name.
	IgnoreValidationErrors bool
}

// UploadProfile submits YAML profile or rule files for a project. Each file
// is syntax-checked locally before anything is sent, so an obviously broken
// profile never reaches the backend. The multipart writer supplies its own
// Content-Type with the boundary; the wrapper must not add the JSON one.
func (c *Client) UploadProfile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}
	for name, content := range req.Files {
		var doc any
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", name, err)
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("project", strconv.Itoa(req.ProjectID)); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.WriteField("ignore_validation_errors", strconv.FormatBool(req.IgnoreValidationErrors)); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	for name, content := range req.Files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
		if _, err := part.Write(content); err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.url(EndpointProfileUpload), &buf, writer.FormDataContentType(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UploadResult
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	if len(raw) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, decodeError(err)
	}
	return &result, nil
}
