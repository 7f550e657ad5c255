package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joseteiadirector/teia-geo/internal/config"
	"github.com/joseteiadirector/teia-geo/internal/models"
	"github.com/joseteiadirector/teia-geo/internal/services"
	"github.com/joseteiadirector/teia-geo/internal/telemetry"
)

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "trendctl",
		Short: "Offline trend, forecast and anomaly analysis",
		Long: `trendctl runs the predictive analytics engine over a series of
timestamped values without touching the database or the text generator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "trendctl version %s\n", telemetry.ServiceVersion)
			return err
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		file     string
		horizons []int
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a series read from a JSON file",
		Long: `Reads either a JSON array of {"timestamp","value"} points or an object
{"points": [...], "horizons": [...]} and prints the analysis as JSON.
Use --file - to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			req, err := decodeSeriesRequest(data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("horizons") {
				req.Horizons = horizons
			}

			logger := logrus.New()
			logger.SetOutput(io.Discard)
			engine := services.NewPredictiveEngine(config.DefaultAnalyticsConfig())
			service := services.NewPredictiveService(engine, nil, nil, nil, logger)

			analysis, err := service.AnalyzeSeries(req)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				encoder.SetIndent("", "  ")
			}
			return encoder.Encode(analysis)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the JSON series, or - for stdin")
	cmd.Flags().IntSliceVar(&horizons, "horizons", nil, "forecast horizons in days, e.g. 7,14,30")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

func decodeSeriesRequest(data []byte) (models.SeriesAnalysisRequest, error) {
	var req models.SeriesAnalysisRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return req, fmt.Errorf("input is empty")
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &req.Points); err != nil {
			return req, fmt.Errorf("invalid series: %w", err)
		}
		return req, nil
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, fmt.Errorf("invalid series request: %w", err)
	}
	return req, nil
}
