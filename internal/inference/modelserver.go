package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const defaultModelURL = "http://localhost:8000"

// ModelClient talks to the inference model server over HTTP. It implements
// RegionDetector, TextRecognizer, and FaceExtractor.
type ModelClient struct {
	baseURL string
	client  *http.Client
}

// NewModelClient creates a client for the model server.
func NewModelClient(baseURL string) *ModelClient {
	if baseURL == "" {
		baseURL = defaultModelURL
	}
	return &ModelClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse is the model server's badge detection payload.
type detectResponse struct {
	Count      int         `json:"count"`
	Detections []Detection `json:"detections"`
}

// faceResponse is the model server's face extraction payload.
type faceResponse struct {
	FacesCount int         `json:"faces_count"`
	Faces      []Detection `json:"faces"`
	Model      string      `json:"model"`
}

// ocrResponse is the model server's text recognition payload.
type ocrResponse struct {
	Text string `json:"text"`
}

// postMultipartImage posts the image as a multipart form to the given
// endpoint with an explicit Content-Type from magic byte detection.
func (c *ModelClient) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectRegions asks the model server for badge candidate regions.
func (c *ModelClient) DetectRegions(ctx context.Context, frame []byte) ([]Detection, error) {
	body, err := c.postMultipartImage(ctx, "/detect/badge", frame)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return detResp.Detections, nil
}

// RecognizeText runs the model server's OCR route over an image region.
func (c *ModelClient) RecognizeText(ctx context.Context, region []byte) (string, error) {
	body, err := c.postMultipartImage(ctx, "/ocr", region)
	if err != nil {
		return "", err
	}

	var ocrResp ocrResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return ocrResp.Text, nil
}

// ExtractFaces detects faces with landmarks and descriptors.
func (c *ModelClient) ExtractFaces(ctx context.Context, frame []byte) ([]Detection, error) {
	body, err := c.postMultipartImage(ctx, "/detect/face", frame)
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return faceResp.Faces, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "application/octet-stream"
}
