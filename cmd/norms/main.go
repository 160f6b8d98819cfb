package main

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
)

var (
	dataPath    string
	separator   string
	catalogPath string
	outPath     string
	jsonPath    string

	rootCmd = &cobra.Command{
		Use:   "norms",
		Short: "Compute Big Five population norms from an IPIP-FFM dataset",
		Long: `norms reads the public IPIP-FFM response dataset, scores every
respondent and prints mean and standard deviation per trait. With --out
the norms are written into a copy of the catalog YAML.`,
		SilenceUsage: true,
		RunE:         runNorms,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&dataPath, "data", "d", "data.csv", "dataset path")
	rootCmd.Flags().StringVar(&separator, "sep", "\t", "column separator")
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "base catalog YAML (default: embedded)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "write updated catalog YAML to this path")
	rootCmd.Flags().StringVar(&jsonPath, "json", "", "write computed norms as JSON to this path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runNorms(cmd *cobra.Command, _ []string) error {
	logger := zap.NewExample()
	defer logger.Sync()

	sep, size := utf8.DecodeRuneInString(separator)
	if size == 0 || size != len(separator) {
		return fmt.Errorf("separator must be a single character, got %q", separator)
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	norms, rows, err := ComputeNorms(f, sep)
	if err != nil {
		return err
	}
	logger.Info("dataset scored", zap.String("path", dataPath), zap.Int("rows", rows))

	out := cmd.OutOrStdout()
	for _, trait := range domain.AllTraits() {
		n := norms[trait]
		fmt.Fprintf(out, "%-18s n=%-7d mean=%-5.1f std=%-4.1f min=%.0f max=%.0f\n",
			trait.DisplayName(), n.Samples, n.Mean, n.Std, n.Min, n.Max)
	}

	if jsonPath != "" {
		data, err := json.MarshalIndent(norms, "", "  ")
		if err != nil {
			return fmt.Errorf("encode norms: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("write norms json: %w", err)
		}
		logger.Info("norms written", zap.String("path", jsonPath))
	}

	if outPath == "" {
		return nil
	}
	doc, err := baseDocument()
	if err != nil {
		return err
	}
	updated, err := ApplyNorms(doc, norms)
	if err != nil {
		return err
	}
	data, err := updated.Marshal()
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	logger.Info("catalog written", zap.String("path", outPath))
	return nil
}

func baseDocument() (catalog.Document, error) {
	if catalogPath == "" {
		return catalog.DefaultDocument()
	}
	data, err := catalog.NewFileSource(catalogPath).Read()
	if err != nil {
		return catalog.Document{}, err
	}
	return catalog.ParseDocument(data)
}
