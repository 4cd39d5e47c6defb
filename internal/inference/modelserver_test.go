package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testFrame returns an encoded 100x80 PNG for crop/resize tests.
func testFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestModelClient_DetectRegions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect/badge" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		json.NewEncoder(w).Encode(detectResponse{
			Count: 1,
			Detections: []Detection{
				{Score: 0.92, BBox: []float64{10, 10, 60, 40}},
			},
		})
	}))
	defer server.Close()

	client := NewModelClient(server.URL)
	detections, err := client.DetectRegions(context.Background(), testFrame(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(detections))
	}
	if detections[0].Score != 0.92 {
		t.Errorf("score = %f, want 0.92", detections[0].Score)
	}
}

func TestModelClient_RecognizeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ocrResponse{Text: "SO1474l"})
	}))
	defer server.Close()

	client := NewModelClient(server.URL)
	text, err := client.RecognizeText(context.Background(), testFrame(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "SO1474l" {
		t.Errorf("text = %q, want %q", text, "SO1474l")
	}
}

func TestModelClient_ExtractFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect/face" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Faces: []Detection{
				{Score: 0.99, BBox: []float64{5, 5, 50, 50}, Descriptor: make([]float32, 128)},
			},
		})
	}))
	defer server.Close()

	client := NewModelClient(server.URL)
	faces, err := client.ExtractFaces(context.Background(), testFrame(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("got %d faces, want 1", len(faces))
	}
	if len(faces[0].Descriptor) != 128 {
		t.Errorf("descriptor length = %d, want 128", len(faces[0].Descriptor))
	}
}

func TestModelClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewModelClient(server.URL)
	if _, err := client.RecognizeText(context.Background(), testFrame(t)); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestCropRegion(t *testing.T) {
	cropped, err := CropRegion(testFrame(t), []float64{10, 10, 60, 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("failed to decode cropped region: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 30 {
		t.Errorf("cropped size = %dx%d, want 50x30", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropRegion_ClampsToFrame(t *testing.T) {
	cropped, err := CropRegion(testFrame(t), []float64{80, 60, 200, 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("failed to decode cropped region: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Errorf("cropped size = %dx%d, want 20x20", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropRegion_OutsideFrame(t *testing.T) {
	if _, err := CropRegion(testFrame(t), []float64{200, 200, 300, 300}); err == nil {
		t.Error("expected error for box outside the frame")
	}
}

func TestCropRegion_BadBox(t *testing.T) {
	if _, err := CropRegion(testFrame(t), []float64{1, 2, 3}); err == nil {
		t.Error("expected error for malformed bounding box")
	}
}

func TestResizeImage(t *testing.T) {
	resized, err := ResizeImage(testFrame(t), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode resized image: %v", err)
	}
	if img.Bounds().Dx() != 50 {
		t.Errorf("resized width = %d, want 50", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 40 {
		t.Errorf("resized height = %d, want 40", img.Bounds().Dy())
	}
}

func TestDetectMIMEType(t *testing.T) {
	if got := detectMIMEType(testFrame(t)); got != "image/png" {
		t.Errorf("MIME = %q, want image/png", got)
	}
	if got := detectMIMEType([]byte{0xFF, 0xD8, 0xFF, 0, 0, 0, 0, 0}); got != "image/jpeg" {
		t.Errorf("MIME = %q, want image/jpeg", got)
	}
	if got := detectMIMEType([]byte{1, 2}); got != "application/octet-stream" {
		t.Errorf("MIME = %q, want octet-stream", got)
	}
}
