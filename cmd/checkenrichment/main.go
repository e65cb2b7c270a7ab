// Command checkenrichment lists the hotel, reservations and items of the stored itinerary
// that have no enrichment yet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/itinerary-backend/internal/app"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
)

func main() {
	failOnPending := flag.Bool("fail", false, "exit with status 2 when anything is pending")
	flag.Parse()
	_ = godotenv.Load()

	log, err := app.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Error("Load config failed", "error", err)
		os.Exit(1)
	}
	core, err := app.OpenCore(log, cfg, nil)
	if err != nil {
		log.Error("Open storage failed", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	found, err := core.Load(context.Background())
	if err != nil {
		log.Error("Load itinerary failed", "error", err)
		os.Exit(1)
	}
	if !found {
		fmt.Printf("No itinerary stored for trip %q\n", cfg.TripKey)
		return
	}

	pending := enrichment.CollectPending(core.Cell.Snapshot())
	if len(pending) == 0 {
		fmt.Println("Everything is enriched.")
		return
	}
	fmt.Printf("%d entries need enrichment:\n", len(pending))
	for _, p := range pending {
		fmt.Printf("  %-22s %s  [%s]\n", p.Ref.String(), p.PromptText, p.Request.Context)
	}
	if *failOnPending {
		os.Exit(2)
	}
}
