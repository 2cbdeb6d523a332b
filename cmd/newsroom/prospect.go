package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"newsroom/internal/domain"
)

// newProspectCmd runs a single batch from the command line. Unset flags fall
// back to the generation section of the config file.
func newProspectCmd(configPath *string) *cobra.Command {
	var (
		keywords  []string
		timeRange string
		tone      string
		length    int
		count     int
	)

	cmd := &cobra.Command{
		Use:   "prospect",
		Short: "Generate one batch of draft articles and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := a.cfg.Generation.Request()
			flags := cmd.Flags()
			if flags.Changed("keyword") {
				req.Keywords = keywords
			}
			if flags.Changed("time-range") {
				req.TimeRange = timeRange
			}
			if flags.Changed("tone") {
				req.Params.Tone = domain.Tone(tone)
			}
			if flags.Changed("length") {
				req.Params.TargetLength = length
			}
			if flags.Changed("count") {
				req.Params.Count = count
			}

			result, err := a.prospects.Generate(ctx, req)
			if err != nil {
				return fmt.Errorf("generate batch: %w", err)
			}

			a.logger.Info("batch generated",
				"topics_found", result.Stats.TopicsFound,
				"created", result.Stats.Created,
				"duration", result.Stats.Duration,
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result.Articles)
		},
	}

	cmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "keyword to prospect (repeatable)")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "time range hint, e.g. \"in the last 24 hours\"")
	cmd.Flags().StringVar(&tone, "tone", "", "writing tone")
	cmd.Flags().IntVar(&length, "length", 0, "target length in words")
	cmd.Flags().IntVar(&count, "count", 0, "number of articles, 1 to 5")

	return cmd
}
