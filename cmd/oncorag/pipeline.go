package oncorag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/oncorag/oncorag/pkg/config"
	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <patient-id> <pdf-file>...",
	Short: "Index PDF documents for a patient",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <patient-id> <question>",
	Short: "Ask a question about a patient's documents",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var extractCmd = &cobra.Command{
	Use:   "extract <patient-id>",
	Short: "Extract structured medical data from a patient's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var exportCmd = &cobra.Command{
	Use:   "export <patient-id>",
	Short: "Export a patient's data as JSON, CSV and parquet reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	extractDataType string
	exportOutputDir string
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(exportCmd)

	extractCmd.Flags().StringVar(&extractDataType, "data-type", "all", "Data category (all, psa, gleason, stage, treatment, biopsy, imaging)")
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "exports", "Directory for generated reports")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	patientID := args[0]

	for _, path := range args[1:] {
		result, err := client.IngestDocument(ctx, path, patientID)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Printf("Indexed %s: %d pages, %d chunks (backend: %s)\n",
			path, result.Pages, result.Chunks, result.Backend)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	patientID := args[0]
	question := strings.Join(args[1:], " ")

	answer, err := client.Ask(context.Background(), question, patientID)
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, src := range answer.Sources {
			fmt.Printf("  %s (page %d, score %.3f)\n",
				src.Chunk.Source, src.Chunk.Page, src.Score)
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := client.ExtractMedicalData(context.Background(), args[0], extract.DataType(extractDataType))
	if err != nil {
		return fmt.Errorf("failed to extract data: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.ExportPatientData(context.Background(), args[0], exportOutputDir)
	if err != nil {
		return fmt.Errorf("failed to export data: %w", err)
	}

	fmt.Printf("JSON report:    %s\n", result.JSONReport)
	fmt.Printf("Summary report: %s\n", result.SummaryReport)
	for _, f := range result.CSVFiles {
		fmt.Printf("CSV:            %s\n", f)
	}
	for _, f := range result.ParquetFiles {
		fmt.Printf("Parquet:        %s\n", f)
	}
	return nil
}
