// Package cli implements the picturize command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/logging"
)

var version = "dev"

var (
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "picturize",
	Short: "HTML/Markdown 이미지를 반응형 <picture> 요소로 변환",
	Long: `picturize는 문서 안의 responsive 이미지 태그를 찾아
아트 디렉션(크롭), 해상도별 리사이즈, 포맷 변환(WebP/JPEG)을 수행하고
<picture> 요소로 다시 조립합니다.

설정 파일: ./picturize.yaml (--config로 변경 가능)

예시:
  picturize build ./site --dist ./dist
  picturize inspect index.html
  picturize watch ./site --dist ./dist`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전 정보 표시",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "picturize %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "설정 파일 경로 (기본: ./picturize.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "상세 출력")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "조용한 모드")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "로그 형식 (console, json)")

	rootCmd.AddCommand(versionCmd)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *zap.Logger {
	return logging.New(logging.Config{
		Level:  logging.LevelFor(verbose, quiet),
		Format: logFormat,
	})
}

func newLoader() (*config.Loader, error) {
	if configPath != "" {
		return config.NewLoaderWithPath(configPath), nil
	}
	return config.NewLoader()
}

func loadConfig() (*config.Config, error) {
	loader, err := newLoader()
	if err != nil {
		return nil, fmt.Errorf("설정 로더 초기화 실패: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("설정 로드 실패: %w", err)
	}
	return cfg, nil
}
