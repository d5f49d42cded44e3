package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spotwindow/spotwindow/internal/engine"
	"github.com/spotwindow/spotwindow/internal/notify"
	"github.com/spotwindow/spotwindow/internal/prices"
	"github.com/spotwindow/spotwindow/internal/store"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spotwindow",
		Short: "SpotWindow - find the cheapest time window on spot-market electricity prices",
		Long: `SpotWindow fetches day-ahead electricity spot prices and finds the
cheapest contiguous time window for an energy-consuming task, either
for a fixed duration or for a fixed energy amount at a given power.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spotwindow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.spotwindow/spotwindow.db)")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(subscribeCmd())
	rootCmd.AddCommand(notifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".spotwindow")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("spotwindow")
	viper.AutomaticEnv()
	viper.SetDefault("region", "DE")
	viper.SetDefault("vat", true)
	viper.ReadInConfig()

	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".spotwindow", "spotwindow.db")
	}
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func configuredRegion(flag string) engine.Region {
	if flag != "" {
		return engine.Region(flag)
	}
	return engine.Region(viper.GetString("region"))
}

func fetchCmd() *cobra.Command {
	var region string
	var date string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch day-ahead spot prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client := prices.NewClient()
			reg := configuredRegion(region)

			var points []engine.PricePoint
			var err error

			if date == "today" {
				points, err = client.TodayAndTomorrow(ctx, reg, time.Now())
			} else {
				day, parseErr := time.Parse("2006-01-02", date)
				if parseErr != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", parseErr)
				}
				points, err = client.Day(ctx, reg, day)
			}
			if err != nil {
				return err
			}

			if st, storeErr := openStore(); storeErr == nil {
				byDay := map[time.Time][]engine.PricePoint{}
				for _, p := range points {
					day := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, time.UTC)
					byDay[day] = append(byDay[day], p)
				}
				for day, dayPoints := range byDay {
					st.CachePrices(reg, day, dayPoints)
				}
				st.Close()
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "market region (DE or AT)")
	cmd.Flags().StringVarP(&date, "date", "d", "today", "date to fetch (YYYY-MM-DD or 'today')")

	return cmd
}

func searchCmd() *cobra.Command {
	var region string
	var duration time.Duration
	var energy, power float64
	var tonight bool
	var hours int
	var from, to string
	var noVAT bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the cheapest time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := time.Now()
			reg := configuredRegion(region)

			req := engine.Request{
				Mode:       engine.ModeDuration,
				Duration:   duration,
				VATEnabled: viper.GetBool("vat") && !noVAT,
				Region:     reg,
			}
			if energy > 0 {
				req.Mode = engine.ModeEnergy
				req.EnergyKWh = energy
				req.PowerKW = power
				if req.PowerKW == 0 {
					req.PowerKW = viper.GetFloat64("power_kw")
				}
			}

			switch {
			case tonight:
				req.Scope = engine.Tonight()
			case from != "" || to != "":
				fromT, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("invalid --from (use RFC3339): %w", err)
				}
				toT, err := time.Parse(time.RFC3339, to)
				if err != nil {
					return fmt.Errorf("invalid --to (use RFC3339): %w", err)
				}
				req.Scope = engine.Custom(fromT, toT)
			default:
				req.Scope = engine.NextHours(hours)
			}

			client := prices.NewClient()
			points, err := client.TodayAndTomorrow(ctx, reg, now)
			if err != nil {
				return fmt.Errorf("fetching prices: %w", err)
			}

			series, err := engine.NewSeries(points, now)
			if err != nil {
				return err
			}

			res, err := engine.CheapestWindow(series, req, now)
			if err != nil {
				return err
			}

			if st, storeErr := openStore(); storeErr == nil {
				cfg, _ := st.GetSettings()
				cfg.Region = reg
				cfg.VATEnabled = req.VATEnabled
				cfg.LastDuration = res.End.Sub(res.Start)
				if req.Mode == engine.ModeEnergy {
					cfg.LastEnergyKWh = req.EnergyKWh
					cfg.PowerKW = req.PowerKW
				}
				st.SaveSettings(cfg)
				st.Close()
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Summarize(res, req))
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "market region (DE or AT)")
	cmd.Flags().DurationVarP(&duration, "duration", "t", 3*time.Hour, "window duration (duration mode)")
	cmd.Flags().Float64VarP(&energy, "energy", "e", 0, "energy amount in kWh (switches to energy mode)")
	cmd.Flags().Float64VarP(&power, "power", "p", 0, "power draw in kW (energy mode)")
	cmd.Flags().BoolVar(&tonight, "tonight", false, "search tonight's window (22:00-06:00)")
	cmd.Flags().IntVar(&hours, "hours", 12, "search the next N hours")
	cmd.Flags().StringVar(&from, "from", "", "explicit search start (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "explicit search end (RFC3339)")
	cmd.Flags().BoolVar(&noVAT, "no-vat", false, "use raw prices without VAT")

	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage stored settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetSettings()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	var region string
	var power float64
	var vat bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Update stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("region") {
				reg := engine.Region(region)
				if !reg.Valid() {
					return fmt.Errorf("unknown region %q", region)
				}
				cfg.Region = reg
			}
			if cmd.Flags().Changed("power") {
				cfg.PowerKW = power
			}
			if cmd.Flags().Changed("vat") {
				cfg.VATEnabled = vat
			}
			if err := st.SaveSettings(cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Settings saved (region %s, VAT %v, power %.1f kW)\n",
				cfg.Region, cfg.VATEnabled, cfg.PowerKW)
			return nil
		},
	}
	set.Flags().StringVar(&region, "region", "", "market region (DE or AT)")
	set.Flags().Float64Var(&power, "power", 0, "default power draw in kW")
	set.Flags().BoolVar(&vat, "vat", true, "apply VAT to prices")

	cmd.AddCommand(show, set)
	return cmd
}

func subscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Manage notification thresholds",
	}

	var region string
	var threshold float64
	var noVAT bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a notification threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			reg := configuredRegion(region)
			if !reg.Valid() {
				return fmt.Errorf("unknown region %q", reg)
			}
			sub, err := st.AddSubscription(reg, threshold, !noVAT)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Subscribed: notify when the cheapest hour drops below %.2f ct/kWh\n", threshold)
			fmt.Printf("  ID: %s\n", sub.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&region, "region", "r", "", "market region (DE or AT)")
	add.Flags().Float64Var(&threshold, "threshold", 10, "threshold price in ct/kWh")
	add.Flags().BoolVar(&noVAT, "no-vat", false, "compare against raw prices without VAT")
	add.MarkFlagRequired("threshold")

	list := &cobra.Command{
		Use:   "list",
		Short: "List notification thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			for _, reg := range []engine.Region{engine.RegionDE, engine.RegionAT} {
				subs, err := st.Subscriptions(reg)
				if err != nil {
					return err
				}
				for _, sub := range subs {
					fmt.Printf("%-38s %s  %6.2f ct/kWh  VAT=%v\n", sub.ID, sub.Region, sub.Threshold, sub.VATEnabled)
				}
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a notification threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.DeleteSubscription(args[0])
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Evaluate notification thresholds against tomorrow's prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := time.Now()
			tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			client := prices.NewClient()
			all := []notify.Payload{}
			for _, reg := range []engine.Region{engine.RegionDE, engine.RegionAT} {
				subs, err := st.Subscriptions(reg)
				if err != nil {
					return err
				}
				if len(subs) == 0 {
					continue
				}

				points, err := client.Day(ctx, reg, tomorrow)
				if err != nil {
					return fmt.Errorf("fetching %s prices: %w", reg, err)
				}
				payloads, err := notify.Evaluate(points, subs, now)
				if err != nil {
					return err
				}
				all = append(all, payloads...)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(all)
		},
	}
}
