package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
)

// scribble decodes but cannot be re-encoded, to exercise the encode
// failure path.
func init() {
	image.RegisterFormat("scribble", "SCRIBBLE",
		func(io.Reader) (image.Image, error) {
			return image.NewNRGBA(image.Rect(0, 0, 8, 8)), nil
		},
		func(io.Reader) (image.Config, error) {
			return image.Config{ColorModel: color.NRGBAModel, Width: 8, Height: 8}, nil
		})
}

type stubDetector struct {
	faces redact.FaceList
	err   error
	calls int
}

func (s *stubDetector) DetectFaces(ctx context.Context, imageBytes []byte) (redact.FaceList, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.faces, nil
}

type stubFetcher struct {
	body []byte
	err  error
	keys []string
}

func (s *stubFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	s.keys = append(s.keys, location)
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

func newTestRouter(t *testing.T, srv *Server) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	srv.RegisterRoutes(router)
	return router
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func buildMultipartBody(t *testing.T, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload.png"`)
	header.Set("Content-Type", "image/png")

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field %s: %v", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestRedactUploadWithExplicitBoxes(t *testing.T) {
	detector := &stubDetector{}
	srv := New(detector, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, testPNG(t, 50, 50), map[string]string{
		"faces": `[{"left":0.2,"top":0.2,"width":0.4,"height":0.4}]`,
	})

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if detector.calls != 0 {
		t.Fatalf("detector must not run when boxes are supplied, got %d calls", detector.calls)
	}
	img, _, err := image.Decode(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("response did not decode as an image: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Fatalf("response image has wrong dimensions: %v", img.Bounds())
	}
}

func TestRedactUploadUsesDetectorWhenNoBoxes(t *testing.T) {
	detector := &stubDetector{faces: redact.FaceList{{Left: 0.1, Top: 0.1, Width: 0.3, Height: 0.3}}}
	srv := New(detector, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, testPNG(t, 40, 40), nil)

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if detector.calls != 1 {
		t.Fatalf("expected one detector call, got %d", detector.calls)
	}
}

func TestRedactUploadRejectsOversizedFile(t *testing.T) {
	srv := New(&stubDetector{}, nil, zap.NewNop(), 0, 16)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, bytes.Repeat([]byte("a"), 64), nil)

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.Code)
	}
}

func TestRedactUploadRejectsBadBoxJSON(t *testing.T) {
	srv := New(&stubDetector{}, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, testPNG(t, 20, 20), map[string]string{"faces": "not-json"})

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestRedactUploadRejectsNonImagePayload(t *testing.T) {
	srv := New(&stubDetector{}, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, []byte("plain text"), map[string]string{"faces": "[]"})

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, resp.Code)
	}
}

func TestRedactUploadReportsUnencodableImage(t *testing.T) {
	srv := New(&stubDetector{}, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	body, contentType := buildMultipartBody(t, []byte("SCRIBBLE-payload"), map[string]string{"faces": "[]"})

	req := httptest.NewRequest(http.MethodPost, "/redact", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestRedactObjectRunsFullPipeline(t *testing.T) {
	detector := &stubDetector{faces: redact.FaceList{{Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5}}}
	fetcher := &stubFetcher{body: testPNG(t, 32, 32)}
	srv := New(detector, fetcher, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/redact/portrait.png", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(fetcher.keys) != 1 || fetcher.keys[0] != "portrait.png" {
		t.Fatalf("unexpected fetched keys: %v", fetcher.keys)
	}
	if detector.calls != 1 {
		t.Fatalf("expected one detector call, got %d", detector.calls)
	}
}

func TestRedactObjectReportsMissingObject(t *testing.T) {
	notFound := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
			Err:      errors.New("NoSuchKey"),
		},
	}
	fetcher := &stubFetcher{err: notFound}
	srv := New(&stubDetector{}, fetcher, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/redact/missing.png", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestRedactObjectUnavailableWithoutFetcher(t *testing.T) {
	srv := New(&stubDetector{}, nil, zap.NewNop(), 0, 0)
	router := newTestRouter(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/redact/key.png", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}
