package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roboco-io/picturize/internal/adapter"
	"github.com/roboco-io/picturize/internal/config"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "사용 가능한 이미지 어댑터 목록",
	Long: `이미지 처리에 사용할 수 있는 어댑터 프리셋 목록을 표시합니다.

각 단계(transform, resize, convert)는 설정 파일에서 프리셋 이름으로
어댑터를 지정합니다. null로 지정하면 해당 단계는 비활성화됩니다.

설정 예시 (picturize.yaml):
  artDirection:
    transformer: thumbor
  resolutionSwitching:
    resizer: imaging
  conversion:
    converter: imaging`,
	RunE: runAdapters,
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

func runAdapters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "어댑터\t단계\t상태\t설명")
	fmt.Fprintln(w, "------\t----\t----\t----")

	for _, p := range adapter.DefaultRegistry.List() {
		stages := make([]string, 0, len(p.Stages))
		for _, s := range p.Stages {
			stages = append(stages, string(s))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.Name, strings.Join(stages, ","), checkAdapterStatus(p, cfg), p.Description)
	}
	return nil
}

// checkAdapterStatus lists the stages cfg assigns to p.
func checkAdapterStatus(p adapter.Preset, cfg *config.Config) string {
	var used []string
	for _, a := range []struct {
		stage adapter.Stage
		name  *string
	}{
		{adapter.StageTransform, cfg.ArtDirection.Transformer},
		{adapter.StageResize, cfg.ResolutionSwitching.Resizer},
		{adapter.StageConvert, cfg.Conversion.Converter},
	} {
		if a.name != nil && *a.name == p.Name {
			used = append(used, string(a.stage))
		}
	}

	if len(used) == 0 {
		return "✗ 미사용"
	}
	return "✓ " + strings.Join(used, ",")
}
