package thumbor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/roboco-io/picturize/internal/ir"
)

func TestRequestPath(t *testing.T) {
	tests := []struct {
		name       string
		descriptor ir.Descriptor
		expected   string
	}{
		{"ratio", ir.Descriptor{MaxViewport: 1200, Size: 0.5, Ratio: "2:3"}, "/unsafe/600x900/smart/img/a.jpg"},
		{"original", ir.Descriptor{MaxViewport: 1200, Size: 0.5, Ratio: ir.RatioOriginal}, "/unsafe/600x0/smart/img/a.jpg"},
		{"custom", ir.Descriptor{MaxViewport: 800, Size: 1, CustomPath: "/x/b.jpg"}, "/unsafe/800x0/smart/img/a.jpg"},
		{"absolute size", ir.Descriptor{MaxViewport: 800, Size: 320, Ratio: "1:1"}, "/unsafe/320x320/smart/img/a.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RequestPath("img/a.jpg", tc.descriptor); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func newServer(t *testing.T, healthy bool, requests *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r.URL.Path)
		switch {
		case r.URL.Path == "/healthcheck" && healthy:
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/healthcheck":
			w.WriteHeader(http.StatusServiceUnavailable)
		case r.URL.Path == "/unsafe/100x50/smart/img/a.jpg":
			_, _ = w.Write([]byte("cropped"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAdapter_Transform(t *testing.T) {
	var requests []string
	server := newServer(t, true, &requests)
	root := t.TempDir()

	a, err := New(Options{URL: server.URL + "/", Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("unexpected setup error: %v", err)
	}

	data, err := a.Transform(context.Background(), filepath.Join(root, "img", "a.jpg"), ir.Descriptor{MaxViewport: 200, Size: 0.5, Ratio: "2:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "cropped" {
		t.Errorf("unexpected body %q", data)
	}

	if _, err := a.Transform(context.Background(), filepath.Join(root, "img", "missing.jpg"), ir.Descriptor{MaxViewport: 200, Size: 0.5, Ratio: "2:1"}); err == nil {
		t.Error("expected error for 404 response")
	}

	if len(requests) != 3 || requests[0] != "/healthcheck" {
		t.Errorf("unexpected requests %v", requests)
	}
}

func TestAdapter_SetupFailsWhenUnhealthy(t *testing.T) {
	var requests []string
	server := newServer(t, false, &requests)

	a, err := New(Options{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Setup(context.Background()); err == nil {
		t.Error("expected health check error")
	}
}
