package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jjmmwon/FiReDR"
	"github.com/jjmmwon/FiReDR/pkg/config"
)

var (
	inputFile   string
	batchSize   int
	nTrees      int
	leafMaxSize int
	threshold   int
	seed        int64
)

var clusterCmd = &cobra.Command{
	Use:     "cluster",
	Short:   "Stream a CSV file of feature vectors through the clustering engine",
	Example: "  prodr-cli cluster -i points.csv --batch-size 32 --n-trees 8",
	RunE:    runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)

	clusterCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file of numeric feature vectors (required)")
	clusterCmd.Flags().IntVar(&batchSize, "batch-size", 32, "Number of rows per Update call")
	clusterCmd.Flags().IntVar(&nTrees, "n-trees", 8, "Number of trees in the forest")
	clusterCmd.Flags().IntVar(&leafMaxSize, "leaf-max-size", 128, "Per-leaf split trigger")
	clusterCmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum co-occurrence for an MC edge (0 = n_trees/2 + 1)")
	clusterCmd.Flags().Int64Var(&seed, "seed", 42, "Base RNG seed")
	clusterCmd.MarkFlagRequired("input")
}

func runCluster(c *cobra.Command, args []string) error {
	rows, err := readCSV(inputFile)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("input file %q contains no rows", inputFile)
	}

	cfg := config.DefaultConfig()
	cfg.NTrees = nTrees
	cfg.LeafMaxSize = leafMaxSize
	cfg.Threshold = threshold
	cfg.Seed = seed
	cfg.Logger = GetLogger()

	engine, err := prodr.New(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		event, err := engine.Update(ctx, rows[start:end])
		if err != nil {
			return fmt.Errorf("update on rows [%d,%d): %w", start, end, err)
		}
		GetLogger().Info("batch [%d,%d): splits=%d merges=%d creations=%d",
			start, end, len(event.SplitEvents), len(event.MergeEvents), len(event.CreationEvents))
	}

	printClusters(engine.GetMicroClusters())
	return nil
}

func readCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, 0, len(records))
	for _, record := range records {
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", field, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printClusters(clusters []prodr.MicroCluster) {
	sort.Slice(clusters, func(i, j int) bool {
		return minIndex(clusters[i]) < minIndex(clusters[j])
	})
	fmt.Printf("%d micro-clusters:\n", len(clusters))
	for _, mc := range clusters {
		sorted := append([]int(nil), mc.Indices...)
		sort.Ints(sorted)
		fmt.Printf("  head=%-6d size=%-4d indices=%v\n", mc.Head, len(sorted), sorted)
	}
}

func minIndex(mc prodr.MicroCluster) int {
	min := mc.Indices[0]
	for _, idx := range mc.Indices[1:] {
		if idx < min {
			min = idx
		}
	}
	return min
}
