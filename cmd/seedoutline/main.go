// Command seedoutline parses an outline file into the stored itinerary, keeping enrichment
// for entries whose text is unchanged. With -enrich it runs one enrichment pass before exiting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/yungbote/itinerary-backend/internal/app"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

func main() {
	path := flag.String("file", "itinerary.txt", "outline file to import")
	enrich := flag.Bool("enrich", false, "run one enrichment pass after importing")
	flag.Parse()
	_ = godotenv.Load()

	log, err := app.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, *path, *enrich); err != nil {
		log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, path string, enrich bool) error {
	cfg, err := app.LoadConfig(log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read outline: %w", err)
	}

	core, err := app.OpenCore(log, cfg, nil)
	if err != nil {
		return err
	}
	defer core.Close()

	if _, err := core.Load(ctx); err != nil {
		return fmt.Errorf("load itinerary: %w", err)
	}
	svc := core.Service(log, nil)
	saved, err := svc.ReplaceOutline(ctx, string(text))
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	pending := svc.PendingEnrichment()
	fmt.Printf("Imported %d days (version %d); %d entries need enrichment\n", len(saved.Document.Days), saved.Version, len(pending))

	if !enrich || len(pending) == 0 {
		return nil
	}
	sched, err := app.NewScheduler(log, cfg, core, nil)
	if err != nil {
		return fmt.Errorf("init enrichment: %w", err)
	}
	defer sched.Close()
	report, err := sched.Run(ctx, core.Cell.Snapshot())
	if err != nil {
		return err
	}
	fmt.Printf("Enriched %d (cache hits %d), failed %d, stale %d\n", report.Enriched, report.CacheHits, report.Failed, report.Stale)
	return nil
}
