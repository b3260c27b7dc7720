package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/ir"
	"github.com/roboco-io/picturize/internal/parser"
	"github.com/roboco-io/picturize/internal/parser/markdown"
	"github.com/roboco-io/picturize/internal/pipeline"
)

var (
	inspectOutput      string
	inspectFormat      string
	inspectPrettyPrint bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "문서의 반응형 이미지와 생성 계획 표시",
	Long: `문서를 파싱하여 반응형 이미지 목록과 생성될 소스, 브레이크포인트를 표시합니다.

어댑터는 호출되지 않으며 파일도 생성되지 않습니다.
리사이즈 계획을 세우기 위해 원본 이미지의 크기는 읽습니다.
출력 형식은 JSON 또는 텍스트(요약)를 지원합니다.

예시:
  picturize inspect index.html
  picturize inspect index.md --format text
  picturize inspect index.html -o plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "출력 파일 경로 (기본: stdout)")
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "json", "출력 형식 (json, text)")
	inspectCmd.Flags().BoolVar(&inspectPrettyPrint, "pretty", true, "JSON 들여쓰기 적용")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("파일을 찾을 수 없습니다: %s", inputPath)
	}
	if !isBuildable(inputPath) {
		return fmt.Errorf("지원하지 않는 파일 형식입니다: %s", filepath.Ext(inputPath))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := inspectDocument(cfg, inputPath)
	if err != nil {
		return fmt.Errorf("문서 분석 실패: %w", err)
	}

	output, err := formatInspection(result, inspectFormat)
	if err != nil {
		return fmt.Errorf("출력 포맷팅 실패: %w", err)
	}

	if inspectOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	}
	if err := os.WriteFile(inspectOutput, []byte(output), 0644); err != nil {
		return fmt.Errorf("파일 저장 실패: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "분석 완료: %s\n", inspectOutput)
	return nil
}

// inspectDocument runs the pipeline for every stage the configuration
// enables without performing the queued work.
func inspectDocument(cfg *config.Config, path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if parser.DetectFormat(path) == parser.FormatMarkdown {
		if content, err = markdown.Render(data); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(pipeline.Options{
		Config: cfg,
		Stages: stagesFromConfig(cfg),
		Root:   filepath.Dir(abs),
		Logger: newLogger(),
	})
	if err != nil {
		return nil, err
	}
	return p.Process(parser.Document{Path: abs, Content: content})
}

func stagesFromConfig(cfg *config.Config) pipeline.Stages {
	return pipeline.Stages{
		Transform: cfg.ArtDirection.Transformer != nil,
		Resize:    cfg.ResolutionSwitching.Resizer != nil,
		Convert:   cfg.Conversion.Converter != nil,
	}
}

func formatInspection(result *pipeline.Result, format string) (string, error) {
	switch format {
	case "json":
		var data []byte
		var err error
		if inspectPrettyPrint {
			data, err = json.MarshalIndent(result, "", "  ")
		} else {
			data, err = json.Marshal(result)
		}
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "text":
		return formatAsText(result), nil

	default:
		return "", fmt.Errorf("지원하지 않는 출력 형식: %s", format)
	}
}

func formatAsText(result *pipeline.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "문서: %s\n", result.Path)
	fmt.Fprintf(&sb, "이미지: %d개, 작업: 크롭 %d, 리사이즈 %d, 변환 %d\n",
		len(result.Images), len(result.Work.Transforms), len(result.Work.Resizes), len(result.Work.Conversions))

	for i, img := range result.Images {
		fmt.Fprintf(&sb, "\n[%d] %s\n", i+1, img.OriginalPath)
		fmt.Fprintf(&sb, "  sizes: %s\n", formatSizes(img.Sizes))
		if len(img.Sources) == 0 {
			sb.WriteString("  (변경 없음)\n")
			continue
		}
		for _, src := range img.Sources {
			sb.WriteString("  " + formatSource(src) + "\n")
		}
	}

	return sb.String()
}

func formatSizes(sizes ir.Sizes) string {
	keys := make([]string, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.FormatFloat(sizes[k], 'g', -1, 64))
	}
	return strings.Join(parts, ", ")
}

func formatSource(src *ir.Source) string {
	viewport := "*"
	if src.HasViewport() {
		viewport = fmt.Sprintf("<=%dpx", src.MaxViewport)
	}

	widths := make([]string, 0, len(src.Breakpoints))
	for _, bp := range src.Breakpoints {
		widths = append(widths, fmt.Sprintf("%dw", bp.Width))
	}

	return fmt.Sprintf("%-8s %-8s %s", viewport, src.Format, strings.Join(widths, " "))
}
