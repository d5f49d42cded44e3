package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/spotwindow/spotwindow/internal/engine"
	"github.com/spotwindow/spotwindow/internal/httpapi"
	"github.com/spotwindow/spotwindow/internal/notify"
	"github.com/spotwindow/spotwindow/internal/prices"
	"github.com/spotwindow/spotwindow/internal/store"
)

// Day-ahead prices publish around 14:00 CET; evaluate shortly after.
const evaluateSchedule = "30 14 * * *"

func main() {
	var port int
	var dbPath string

	rootCmd := &cobra.Command{
		Use:   "spotwindowd",
		Short: "SpotWindow HTTP server and notification scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".spotwindow", "spotwindow.db")
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			client := prices.NewClient()
			srv := httpapi.NewServer(st, client)

			c := cron.New()
			if _, err := c.AddFunc(evaluateSchedule, func() {
				evaluateAll(st, client)
			}); err != nil {
				return fmt.Errorf("scheduling notification evaluation: %w", err)
			}
			c.Start()
			defer c.Stop()

			addr := fmt.Sprintf(":%d", port)
			log.Printf("spotwindowd listening on %s", addr)
			log.Printf("database: %s", dbPath)
			log.Printf("notification evaluation scheduled at %q", evaluateSchedule)

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "database path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// evaluateAll runs the threshold evaluation for every region that has
// subscriptions. Delivery is left to a downstream push service; the
// daemon only logs the produced payloads.
func evaluateAll(st *store.Store, client *prices.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

	for _, reg := range []engine.Region{engine.RegionDE, engine.RegionAT} {
		subs, err := st.Subscriptions(reg)
		if err != nil {
			log.Printf("loading %s subscriptions: %v", reg, err)
			continue
		}
		if len(subs) == 0 {
			continue
		}

		points, err := client.Day(ctx, reg, tomorrow)
		if err != nil {
			log.Printf("fetching %s prices: %v", reg, err)
			continue
		}

		payloads, err := notify.Evaluate(points, subs, now)
		if err != nil {
			log.Printf("evaluating %s subscriptions: %v", reg, err)
			continue
		}
		for _, p := range payloads {
			log.Printf("notify %s: cheapest hour %.2f ct/kWh at %s (threshold %.2f)",
				p.SubscriptionID, p.CheapestHourPrice, p.CheapestHourStart.Format(time.RFC3339), p.ThresholdPrice)
		}
	}
}
