package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/picturize/internal/adapter"
	"github.com/roboco-io/picturize/internal/adapter/imaging"
	"github.com/roboco-io/picturize/internal/adapter/thumbor"
	"github.com/roboco-io/picturize/internal/build"
	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/parser"
)

var (
	buildDist           string
	buildOut            string
	buildTempDir        string
	buildConcurrency    int
	buildDryRun         bool
	buildQuality        int
	buildThumborURL     string
	buildThumborTimeout time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build <file|dir>...",
	Short: "문서의 반응형 이미지를 생성하고 <picture>로 변환",
	Long: `HTML/Markdown 문서를 처리하여 반응형 이미지를 생성합니다.

디렉토리를 지정하면 하위의 .html, .htm, .md 문서를 모두 처리합니다.
생성된 이미지는 --dist 디렉토리에, 변환된 문서는 --out 디렉토리에 저장됩니다.
Markdown 문서는 HTML로 변환되어 저장됩니다.

환경 변수:
  PICTURIZE_DRY_RUN=true      이미지를 생성하지 않고 결과 마크업만 출력
  PICTURIZE_THUMBOR_URL=xxx   thumbor 서버 주소 (기본: http://localhost:8888)

예시:
  picturize build index.html
  picturize build ./site --dist ./dist -j 8
  picturize build ./site --dist ./public/assets --out ./public
  picturize build index.md --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "이미지를 생성하지 않고 결과 마크업만 출력")

	rootCmd.AddCommand(buildCmd)
}

// addBuildFlags registers the flags shared by build and watch.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&buildDist, "dist", "./dist", "생성된 이미지 저장 디렉토리")
	cmd.Flags().StringVarP(&buildOut, "out", "o", "", "변환된 문서 저장 디렉토리 (기본: --dist)")
	cmd.Flags().StringVar(&buildTempDir, "temp-dir", "", "임시 파일 디렉토리 (기본: 시스템 임시 디렉토리)")
	cmd.Flags().IntVarP(&buildConcurrency, "concurrency", "j", 0, "동시 처리 수 (기본: CPU 수)")
	cmd.Flags().IntVar(&buildQuality, "quality", imaging.DefaultQuality, "JPEG/WebP 인코딩 품질 (1-100)")
	cmd.Flags().StringVar(&buildThumborURL, "thumbor-url", "", "thumbor 서버 주소")
	cmd.Flags().DurationVar(&buildThumborTimeout, "thumbor-timeout", 0, "thumbor 요청 타임아웃")
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docs, root, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("처리할 문서가 없습니다: %v", args)
	}

	dryRun := buildDryRun || config.GetEnvBool("PICTURIZE_DRY_RUN")

	builder, err := newBuilder(cfg, root, dryRun, logger)
	if err != nil {
		return err
	}
	defer builder.Close()

	if !quiet && verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "문서 %d개 처리 중...\n", len(docs))
	}

	report, err := builder.Build(withContext(cmd), docs)
	if report != nil {
		printReport(cmd, report, dryRun)
	}
	if err != nil {
		return fmt.Errorf("빌드 실패: %w", err)
	}
	return nil
}

func newBuilder(cfg *config.Config, root string, dryRun bool, logger *zap.Logger) (*build.Builder, error) {
	set, err := adapter.FromConfig(cfg, adapterOptions())
	if err != nil {
		return nil, fmt.Errorf("어댑터 초기화 실패: %w", err)
	}

	return build.New(build.Options{
		Config:      cfg,
		Adapters:    set,
		SourceDir:   root,
		DistDir:     buildDist,
		OutDir:      buildOut,
		TempDir:     buildTempDir,
		Concurrency: buildConcurrency,
		DryRun:      dryRun,
		Logger:      logger,
	})
}

func adapterOptions() adapter.Options {
	url := buildThumborURL
	if url == "" {
		url = config.GetEnvOrDefault("PICTURIZE_THUMBOR_URL", thumbor.DefaultURL)
	}
	return adapter.Options{
		Quality:        buildQuality,
		ThumborURL:     url,
		ThumborTimeout: buildThumborTimeout,
	}
}

func printReport(cmd *cobra.Command, report *build.Report, dryRun bool) {
	if dryRun {
		for _, doc := range report.Documents {
			if len(report.Documents) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "<!-- %s -->\n", doc.Source)
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Markup)
		}
	}
	if quiet {
		return
	}

	w := cmd.ErrOrStderr()
	if verbose {
		for _, doc := range report.Documents {
			if doc.Output != "" {
				fmt.Fprintf(w, "  %s -> %s (이미지 %d개)\n", doc.Source, doc.Output, doc.Images)
			}
		}
	}
	for _, failed := range report.Failed {
		fmt.Fprintf(w, "  실패: %s\n", failed)
	}
	fmt.Fprintf(w, "빌드 완료: 문서 %d개, 이미지 %d개 생성, 중복 %d개, 오류 %d개\n",
		len(report.Documents), report.Generated, report.CacheHits, report.Errors)
}

// collectDocuments expands directories into the documents they contain.
// The returned root is the directory output paths are computed from.
func collectDocuments(args []string) ([]string, string, error) {
	var docs []string
	root := "."

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", fmt.Errorf("파일을 찾을 수 없습니다: %s", arg)
			}
			return nil, "", err
		}

		if !info.IsDir() {
			if parser.DetectFormat(arg) == parser.FormatUnknown {
				return nil, "", fmt.Errorf("지원하지 않는 파일 형식입니다: %s", filepath.Ext(arg))
			}
			if len(args) == 1 {
				root = filepath.Dir(arg)
			}
			docs = append(docs, arg)
			continue
		}

		if len(args) == 1 {
			root = arg
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && (d.Name()[0] == '.' || isOutputDir(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if isBuildable(path) {
				docs = append(docs, path)
			}
			return nil
		})
		if err != nil {
			return nil, "", fmt.Errorf("디렉토리 탐색 실패: %w", err)
		}
	}

	return docs, root, nil
}

// isOutputDir keeps a rebuild from picking up its own output.
func isOutputDir(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range []string{buildDist, buildOut} {
		if dir == "" {
			continue
		}
		if d, err := filepath.Abs(dir); err == nil && d == abs {
			return true
		}
	}
	return false
}

func isBuildable(path string) bool {
	switch parser.DetectFormat(path) {
	case parser.FormatHTML, parser.FormatMarkdown:
		return true
	default:
		return false
	}
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
