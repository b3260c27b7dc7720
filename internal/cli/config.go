package cli

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roboco-io/picturize/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 관리",
	Long: `picturize 설정을 관리합니다.

설정 파일 위치: ./picturize.yaml (--config로 변경 가능)

하위 명령:
  show    현재 설정 표시
  init    기본 설정 파일 생성
  set     설정 값 변경
  path    설정 파일 경로 표시`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "현재 설정 표시",
	Long: `현재 적용된 설정을 표시합니다.

설정 파일에 없는 값은 기본값이 표시됩니다.
설정 파일이 없으면 기본값이 표시됩니다.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "기본 설정 파일 생성",
	Long: `기본 설정 파일을 ./picturize.yaml에 생성합니다.

이미 설정 파일이 있는 경우 오류가 발생합니다.
기존 파일을 덮어쓰려면 --force 플래그를 사용하세요.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "설정 값 변경",
	Long: `설정 값을 변경합니다.

지원하는 키:
  defaultSize                           기본 이미지 크기 (뷰포트 비율 또는 px)
  paths.outputDir                       생성된 이미지의 공개 경로
  artDirection.transformer              크롭 어댑터 (imaging, thumbor, null)
  artDirection.defaultRatio             기본 비율 (W:H 또는 original)
  resolutionSwitching.resizer           리사이즈 어댑터 (imaging, null)
  resolutionSwitching.supportRetina     레티나 지원 (true, false)
  resolutionSwitching.minViewport       최소 뷰포트 (px)
  resolutionSwitching.maxViewport       최대 뷰포트 (px)
  resolutionSwitching.maxBreakpointsCount  최대 브레이크포인트 수
  resolutionSwitching.minSizeDifference    브레이크포인트 간 최소 크기 차이 (KB)
  conversion.converter                  변환 어댑터 (imaging, null)
  conversion.enabledFormats.webp        WebP 생성 (true, false)
  conversion.enabledFormats.jpg         JPEG 생성 (true, false)

예시:
  picturize config set artDirection.transformer thumbor
  picturize config set resolutionSwitching.maxBreakpointsCount 8`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "설정 파일 경로 표시",
	Run: func(cmd *cobra.Command, args []string) {
		loader, err := newLoader()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "오류: %v\n", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), loader.ConfigPath())
	},
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "기존 설정 파일 덮어쓰기")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader, err := newLoader()
	if err != nil {
		return fmt.Errorf("설정 로더 초기화 실패: %w", err)
	}

	cfg, err := loader.LoadRaw()
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}

	out := cmd.OutOrStdout()
	if loader.Exists() {
		fmt.Fprintf(out, "설정 파일: %s\n\n", loader.ConfigPath())
	} else {
		fmt.Fprintf(out, "설정 파일: (기본값 사용)\n\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("설정 출력 실패: %w", err)
	}
	fmt.Fprintln(out, string(data))

	fmt.Fprintln(out, "환경 변수:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	envVars := []struct {
		key   string
		desc  string
		value string
	}{
		{"PICTURIZE_DRY_RUN", "이미지 생성 생략", os.Getenv("PICTURIZE_DRY_RUN")},
		{"PICTURIZE_THUMBOR_URL", "thumbor 서버 주소", redactURL(os.Getenv("PICTURIZE_THUMBOR_URL"))},
	}

	for _, ev := range envVars {
		status := "(미설정)"
		if ev.value != "" {
			status = ev.value
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", ev.key, ev.desc, status)
	}
	w.Flush()

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	loader, err := newLoader()
	if err != nil {
		return fmt.Errorf("설정 로더 초기화 실패: %w", err)
	}

	if loader.Exists() && !configForce {
		return fmt.Errorf("설정 파일이 이미 존재합니다: %s\n덮어쓰려면 --force 플래그를 사용하세요", loader.ConfigPath())
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("설정 파일 생성 실패: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "설정 파일 생성됨: %s\n", loader.ConfigPath())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	loader, err := newLoader()
	if err != nil {
		return fmt.Errorf("설정 로더 초기화 실패: %w", err)
	}

	cfg, err := loader.LoadRaw()
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("유효하지 않은 설정: %w", err)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("설정 저장 실패: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "설정 변경됨: %s = %s\n", key, value)
	return nil
}

var configSetters = map[string]func(cfg *config.Config, value string) error{
	"defaultSize": func(cfg *config.Config, value string) error {
		return setFloat(&cfg.DefaultSize, value)
	},
	"paths.outputDir": func(cfg *config.Config, value string) error {
		cfg.Paths.OutputDir = value
		return nil
	},
	"artDirection.transformer": func(cfg *config.Config, value string) error {
		return setAdapter(&cfg.ArtDirection.Transformer, value, config.PresetImaging, config.PresetThumbor)
	},
	"artDirection.defaultRatio": func(cfg *config.Config, value string) error {
		cfg.ArtDirection.DefaultRatio = value
		return nil
	},
	"resolutionSwitching.resizer": func(cfg *config.Config, value string) error {
		return setAdapter(&cfg.ResolutionSwitching.Resizer, value, config.PresetImaging)
	},
	"resolutionSwitching.supportRetina": func(cfg *config.Config, value string) error {
		return setBool(&cfg.ResolutionSwitching.SupportRetina, value)
	},
	"resolutionSwitching.minViewport": func(cfg *config.Config, value string) error {
		return setInt(&cfg.ResolutionSwitching.MinViewport, value)
	},
	"resolutionSwitching.maxViewport": func(cfg *config.Config, value string) error {
		return setInt(&cfg.ResolutionSwitching.MaxViewport, value)
	},
	"resolutionSwitching.maxBreakpointsCount": func(cfg *config.Config, value string) error {
		return setInt(&cfg.ResolutionSwitching.MaxBreakpointsCount, value)
	},
	"resolutionSwitching.minSizeDifference": func(cfg *config.Config, value string) error {
		return setFloat(&cfg.ResolutionSwitching.MinSizeDifference, value)
	},
	"conversion.converter": func(cfg *config.Config, value string) error {
		return setAdapter(&cfg.Conversion.Converter, value, config.PresetImaging)
	},
	"conversion.enabledFormats.webp": func(cfg *config.Config, value string) error {
		return setBool(&cfg.Conversion.EnabledFormats.WebP, value)
	},
	"conversion.enabledFormats.jpg": func(cfg *config.Config, value string) error {
		return setBool(&cfg.Conversion.EnabledFormats.JPG, value)
	},
}

func setConfigValue(cfg *config.Config, key, value string) error {
	set, ok := configSetters[key]
	if !ok {
		keys := make([]string, 0, len(configSetters))
		for k := range configSetters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("알 수 없는 설정 키: %s\n지원하는 키: %s", key, strings.Join(keys, ", "))
	}
	return set(cfg, value)
}

func setAdapter(field **string, value string, valid ...string) error {
	if value == "null" || value == "none" {
		*field = nil
		return nil
	}
	if !slices.Contains(valid, value) {
		return fmt.Errorf("유효하지 않은 어댑터: %s (지원: %s, null)", value, strings.Join(valid, ", "))
	}
	*field = config.Preset(value)
	return nil
}

func setInt(field *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("유효하지 않은 정수 값: %s", value)
	}
	*field = n
	return nil
}

func setFloat(field *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("유효하지 않은 숫자 값: %s", value)
	}
	*field = f
	return nil
}

func setBool(field *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("유효하지 않은 값: %s (true 또는 false)", value)
	}
	*field = b
	return nil
}

// redactURL hides the password of a URL with credentials.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
