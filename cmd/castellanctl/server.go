package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/castellan-sec/castellan/pkg/config"
	"github.com/castellan-sec/castellan/pkg/db"
	"github.com/castellan-sec/castellan/pkg/export/jira"
	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/secrets"
	"github.com/castellan-sec/castellan/pkg/server"
	"github.com/castellan-sec/castellan/pkg/server/endpoints"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the castellan application server",
	Long: `Run the castellan application server.

To run the server requires the environment variables CASTELLAN_JWT_SECRET
and DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		jwtSecret, ok := os.LookupEnv("CASTELLAN_JWT_SECRET")
		if !ok || jwtSecret == "" {
			fmt.Fprintln(os.Stderr, "CASTELLAN_JWT_SECRET environment variable is required")
			os.Exit(1)
		}

		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		cfg := config.Get()
		if host, _ := cmd.Flags().GetString("bind-address"); host != "" {
			cfg.BindAddress = host
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		s, err := buildServer(cfg, []byte(jwtSecret))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		endpoints.RegisterAll(s)

		go func() {
			log.Printf("Running server at http://%s:%s...\n", cfg.BindAddress, cfg.Port)
			if err := s.Start(); err != nil {
				log.Println(err)
			}
		}()

		// Drain in-flight export dispatches before exiting.
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			log.Println("Shutdown error:", err)
		}
	},
}

// buildServer connects to the database, assembles the server and registers
// the configured exporters.
func buildServer(cfg *config.Config, jwtSecret []byte) (*server.Server, error) {
	database, err := db.Connect(db.Config{})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to DB: %w", err)
	}

	s := server.NewServer(database, jwtSecret, cfg)

	if cfg.Jira.Enabled {
		exporter, err := jira.New(jira.Config{
			Host:             cfg.Jira.Host,
			ProjectID:        cfg.Jira.ProjectID,
			IssueTypeID:      cfg.Jira.IssueTypeID,
			User:             secrets.NewEnvSecret("JIRA_USER"),
			APIToken:         secrets.NewEnvSecret("JIRA_API_TOKEN"),
			ReporterMode:     cfg.Jira.ReporterMode,
			ExportOnApproval: cfg.Jira.ExportOnApproval,
			Origin:           cfg.Origin,
			ProxyURL:         cfg.ProxyURL,
			Labels:           []string{"castellan"},
			PriorityIDs: map[model.Severity]string{
				model.SeverityCritical: "1",
				model.SeverityHigh:     "2",
				model.SeverityMedium:   "3",
				model.SeverityLow:      "4",
			},
		}, s.ReviewsStore)
		if err != nil {
			return nil, fmt.Errorf("unable to configure jira exporter: %w", err)
		}
		s.Registry.Register(exporter)
	}

	return s, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", "", "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", "", "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
