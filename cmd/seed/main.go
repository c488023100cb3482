// Command seed bootstraps the serial ledger from a JSON file mapping
// prefixes to last-issued serials, e.g. {"ABC": 1000, "DEF": 2000}.
// Existing counters are never lowered.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/tagmint/tagmint/internal/app"
	"github.com/tagmint/tagmint/internal/ledger"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "seed-serials.json", "path to the JSON counters file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	data, err := os.ReadFile(file)
	if err != nil {
		logger.Error("read counters file", slog.String("file", file), slog.Any("error", err))
		os.Exit(1)
	}
	var counters map[string]int64
	if err := json.Unmarshal(data, &counters); err != nil {
		logger.Error("decode counters file", slog.String("file", file), slog.Any("error", err))
		os.Exit(1)
	}

	store, closeStore, err := app.OpenBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open blob store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	if err := ledger.New(store).Seed(ctx, counters); err != nil {
		logger.Error("seed ledger", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("serial counters seeded", slog.Int("prefixes", len(counters)))
}
