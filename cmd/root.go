package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"apipulse/internal/banner"
	"apipulse/internal/bench"
	"apipulse/internal/cli"
	"apipulse/internal/dummy"
	"apipulse/internal/metrics"
	"apipulse/internal/monitor"
	"apipulse/internal/probe"
)

var (
	cfgFile string
	dbPath  string

	// bench flags
	benchURL      string
	benchProfile  string
	benchDuration int
	benchID       string

	// monitor flags
	monURL      string
	monID       string
	monInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "apipulse",
	Short: "apipulse - API measurement engine",
	Long: `
apipulse probes HTTP endpoints under several load profiles and keeps
recurring health checks running per target.

Subcommands:
  bench    run one benchmark campaign headless
  monitor  run recurring health checks for a target
  dummy    run a local target server for experimenting`,
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.apipulse.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "metrics database path (default is $HOME/.apipulse/metrics.db)")

	benchCmd.Flags().StringVarP(&benchURL, "url", "u", "", "Target URL (required)")
	benchCmd.Flags().StringVarP(&benchProfile, "profile", "p", "response_time", "Profile: response_time, load_test, stress_test, reliability_test")
	benchCmd.Flags().IntVarP(&benchDuration, "duration", "d", 30, "Campaign duration in seconds")
	benchCmd.Flags().StringVar(&benchID, "id", "", "Campaign ID (generated when empty)")
	benchCmd.MarkFlagRequired("url")

	monitorCmd.Flags().StringVarP(&monURL, "url", "u", "", "Target URL (required)")
	monitorCmd.Flags().StringVar(&monID, "id", "", "Target ID (generated when empty)")
	monitorCmd.Flags().DurationVar(&monInterval, "interval", 0, "Check interval (default 5m)")
	monitorCmd.MarkFlagRequired("url")

	dummyCmd.Flags().IntP("port", "p", 8080, "Port to run the dummy target on")

	rootCmd.AddCommand(benchCmd, monitorCmd, dummyCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".apipulse")
		}
	}
	viper.SetEnvPrefix("apipulse")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if lvl, err := logrus.ParseLevel(viper.GetString("log_level")); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func openSink() (*metrics.BoltSink, error) {
	path := dbPath
	if path == "" {
		path = viper.GetString("db")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".apipulse", "metrics.db")
	}
	return metrics.OpenBoltSink(path)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run one benchmark campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := bench.ParseProfileKind(benchProfile)
		if err != nil {
			return err
		}

		sink, err := openSink()
		if err != nil {
			return err
		}
		defer sink.Close()

		id := benchID
		if id == "" {
			id = uuid.New().String()
		}

		// The campaign exists in pending state before the engine touches it.
		if err := sink.MarkCampaignStatus(id, metrics.StatusPending, time.Time{}, time.Time{}); err != nil {
			return err
		}

		svc := bench.NewService(probe.New(), sink, newLogger())
		return cli.Start(svc, bench.Campaign{
			ID:        id,
			TargetURL: benchURL,
			Profile:   kind,
			Duration:  time.Duration(benchDuration) * time.Second,
		})
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run recurring health checks for a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := openSink()
		if err != nil {
			return err
		}
		defer sink.Close()

		log := newLogger()
		mon, err := monitor.New(probe.New(), sink, log, monitor.Config{Interval: monInterval})
		if err != nil {
			return err
		}
		defer mon.Shutdown()

		id := monID
		if id == "" {
			id = uuid.New().String()
		}

		if err := mon.Start(id, monURL); err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info("shutting down")
		return nil
	},
}

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a local dummy target server",
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		dummy.Start(dummy.ServerConfig{Port: port})
		select {}
	},
}
