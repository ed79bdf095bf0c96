// Package pipeline contains the commands that run the text pipeline on
// local input: query analysis and response chunking.
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/panelsearch/internal/service"
)

const (
	stageParsed    = "parsed"
	stageAugmented = "augmented"
	stageFull      = "full"
)

func ParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query...>",
		Short: "Analyze a natural-language panel query",
		Long: "Run the query pipeline on a Korean panel query and print the result as JSON.\n" +
			"--stage selects how far the pipeline runs: parsed, augmented or full.",
		Example: `  panelsearch parse "서울에 사는 20대 초반 남성 IT 종사자를 찾아줘"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runParse,
	}
	cmd.Flags().String("stage", stageFull, "Pipeline stage to print: parsed, augmented or full")
	cmd.Flags().Bool("compact", false, "Print JSON on a single line")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	stage, _ := cmd.Flags().GetString("stage")
	compact, _ := cmd.Flags().GetBool("compact")

	query := strings.Join(args, " ")
	parser := service.NewQueryParser()

	var out any
	switch stage {
	case stageParsed:
		out = parser.Parse(query)
	case stageAugmented:
		out = parser.Augment(parser.Parse(query))
	case stageFull:
		out = parser.Analyze(query)
	default:
		return fmt.Errorf("unknown stage %q: want parsed, augmented or full", stage)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
