package build

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/roboco-io/picturize/internal/adapter"
	imgadapter "github.com/roboco-io/picturize/internal/adapter/imaging"
	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

var hashedURI = regexp.MustCompile(`/hero-[\w-]+\.[0-9a-f]{8}\.(webp|jpg)`)

func setupSite(t *testing.T, docs map[string]string) (srcDir, distDir string) {
	t.Helper()
	srcDir = t.TempDir()
	distDir = t.TempDir()

	img := imaging.New(400, 300, color.NRGBA{R: 240, G: 90, B: 20, A: 255})
	if err := imaging.Save(img, filepath.Join(srcDir, "hero.jpg")); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write document: %v", err)
		}
	}
	return srcDir, distDir
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ResolutionSwitching.MinViewport = 100
	cfg.ResolutionSwitching.MaxViewport = 400
	cfg.ResolutionSwitching.MaxBreakpointsCount = 2
	cfg.ResolutionSwitching.MinSizeDifference = 1
	cfg.ResolutionSwitching.SupportRetina = false
	return cfg
}

func imagingSet() adapter.Set {
	a := imgadapter.New(0)
	return adapter.Set{Resizer: a, Converter: a}
}

func newBuilder(t *testing.T, opts Options) *Builder {
	t.Helper()
	b, err := New(opts)
	if err != nil {
		t.Fatalf("failed to create builder: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBuild_GeneratesPictures(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"index.html": `<main><img responsive class="hero" src="hero.jpg" alt="Hero"/></main>`,
	})
	b := newBuilder(t, Options{Config: testConfig(), Adapters: imagingSet(), SourceDir: srcDir, DistDir: distDir, Concurrency: 2})

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "index.html")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Generated != 8 || report.Errors != 0 {
		t.Errorf("expected 8 generated derivatives without errors, got %d and %d", report.Generated, report.Errors)
	}

	out, err := os.ReadFile(filepath.Join(distDir, "index.html"))
	if err != nil {
		t.Fatalf("expected document in dist: %v", err)
	}
	html := string(out)

	if strings.Contains(html, ir.ImagePlaceholderPrefix) || strings.Contains(html, ir.URLPlaceholderPrefix) {
		t.Errorf("placeholder left in output:\n%s", html)
	}
	if !strings.Contains(html, `<picture class="hero">`) || !strings.Contains(html, `media="(max-width: 400px)"`) {
		t.Errorf("expected picture markup, got:\n%s", html)
	}

	uris := hashedURI.FindAllString(html, -1)
	if len(uris) != 6 {
		t.Fatalf("expected 6 hashed uris in srcsets, got %v", uris)
	}
	for _, uri := range uris {
		if _, err := os.Stat(filepath.Join(distDir, filepath.FromSlash(uri))); err != nil {
			t.Errorf("expected %s to be emitted: %v", uri, err)
		}
	}
}

func TestBuild_IsolatesAdapterFailures(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"index.html": `<img responsive src="hero.jpg"/>`,
	})
	a := imgadapter.New(0)
	set := adapter.Set{
		Resizer: a,
		Converter: adapter.ConvertFunc(func(ctx context.Context, sourcePath string, f format.Format) ([]byte, error) {
			if f == format.FormatWebP {
				return nil, errors.New("webp encoder unavailable")
			}
			return a.Convert(ctx, sourcePath, f)
		}),
	}
	b := newBuilder(t, Options{Config: testConfig(), Adapters: set, SourceDir: srcDir, DistDir: distDir})

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "index.html")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Errors != 3 {
		t.Errorf("expected 3 failed conversions, got %d", report.Errors)
	}

	html := report.Documents[0].Markup
	if strings.Contains(html, "image/webp") || !strings.Contains(html, "image/jpeg") {
		t.Errorf("expected only jpeg sources, got:\n%s", html)
	}
}

func TestBuild_DeduplicatesAcrossDocuments(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"a.html": `<img responsive src="hero.jpg"/>`,
		"b.md":   "# B\n\n<img responsive src=\"hero.jpg\"/>\n",
	})
	b := newBuilder(t, Options{Config: testConfig(), Adapters: imagingSet(), SourceDir: srcDir, DistDir: distDir})

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "a.html"), filepath.Join(srcDir, "b.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Generated != 8 || report.CacheHits != 8 {
		t.Errorf("expected 8 generated and 8 cache hits, got %d and %d", report.Generated, report.CacheHits)
	}
	if _, err := os.Stat(filepath.Join(distDir, "b.html")); err != nil {
		t.Errorf("expected markdown document written as html: %v", err)
	}
}

func TestBuild_DryRun(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"index.html": `<img responsive src="hero.jpg"/>`,
	})
	b := newBuilder(t, Options{Config: testConfig(), Adapters: imagingSet(), SourceDir: srcDir, DistDir: distDir, DryRun: true})

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "index.html")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, _ := os.ReadDir(distDir)
	if len(entries) != 0 {
		t.Errorf("expected nothing written in dry run, got %d entries", len(entries))
	}
	html := report.Documents[0].Markup
	if !strings.Contains(html, `srcset="/hero-c.webp"`) {
		t.Errorf("expected raw uris in dry run, got:\n%s", html)
	}
	if report.Documents[0].Output != "" {
		t.Error("expected no output path in dry run")
	}
}

func TestBuild_DirectiveErrorSkipsDocument(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"good.html": `<img responsive src="hero.jpg"/>`,
		"bad.html":  `<img responsive="size=abc" src="hero.jpg"/>`,
	})
	b := newBuilder(t, Options{Config: testConfig(), Adapters: imagingSet(), SourceDir: srcDir, DistDir: distDir})

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "bad.html"), filepath.Join(srcDir, "good.html")})
	if err == nil {
		t.Error("expected document error")
	}
	if len(report.Failed) != 1 || !strings.HasSuffix(report.Failed[0], "bad.html") {
		t.Errorf("expected bad.html to fail, got %v", report.Failed)
	}
	if _, err := os.Stat(filepath.Join(distDir, "good.html")); err != nil {
		t.Errorf("expected good.html to be written: %v", err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ViewportAliases = map[string]string{ir.DefaultViewport: "1500"}

	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("expected config error")
	}
}

func TestHashedName(t *testing.T) {
	a := HashedName("/img/hero-b_200.webp", []byte("one"))
	b := HashedName("/img/hero-b_200.webp", []byte("two"))

	if !regexp.MustCompile(`^/img/hero-b_200\.[0-9a-f]{8}\.webp$`).MatchString(a) {
		t.Errorf("unexpected name %s", a)
	}
	if a == b {
		t.Error("expected different content to produce different names")
	}
	if a != HashedName("/img/hero-b_200.webp", []byte("one")) {
		t.Error("expected names to be stable")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if !r.Claim("/a.webp") {
		t.Fatal("expected first claim to succeed")
	}
	if r.Claim("/a.webp") {
		t.Error("expected second claim to be a cache hit")
	}
	if r.Generated("/a.webp") {
		t.Error("expected pending uri to not be generated")
	}

	r.Resolve("/a.webp", "/a.1234abcd.webp")
	if !r.Generated("/a.webp") || r.Emitted("/a.webp") != "/a.1234abcd.webp" {
		t.Error("expected resolved uri")
	}

	r.Claim("/b.webp")
	r.Fail("/b.webp", errors.New("boom"))
	if r.Generated("/b.webp") || r.Emitted("/b.webp") != "/b.webp" {
		t.Error("expected failed uri to not be generated")
	}
	if failures := r.Failures(); len(failures) != 1 || failures[0] != "/b.webp" {
		t.Errorf("unexpected failures %v", failures)
	}
	if r.Count() != 2 {
		t.Errorf("expected 2 entries, got %d", r.Count())
	}
}

func TestBuild_WritesDocumentsToOutDir(t *testing.T) {
	srcDir, distDir := setupSite(t, map[string]string{
		"index.html": `<img responsive src="hero.jpg"/>`,
	})
	outDir := t.TempDir()
	tempParent := t.TempDir()
	b := newBuilder(t, Options{Config: testConfig(), Adapters: imagingSet(), SourceDir: srcDir, DistDir: distDir, OutDir: outDir, TempDir: tempParent})

	staging, _ := os.ReadDir(tempParent)
	if len(staging) != 1 {
		t.Errorf("expected the staging directory under %s, got %d entries", tempParent, len(staging))
	}

	report, err := b.Build(context.Background(), []string{filepath.Join(srcDir, "index.html")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(outDir, "index.html"); report.Documents[0].Output != want {
		t.Errorf("expected document at %s, got %s", want, report.Documents[0].Output)
	}
	if _, err := os.Stat(filepath.Join(distDir, "index.html")); err == nil {
		t.Error("expected no document in the image directory")
	}
}
