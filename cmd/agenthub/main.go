package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/agenthub/ai/observability/logging"
	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/internal/version"
	"github.com/hrygo/agenthub/server"
	"github.com/hrygo/agenthub/store"
	"github.com/hrygo/agenthub/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "agenthub",
		Short: `A multi-agent AI hub. Routes each message to the right specialist agents and merges their answers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// systemd units provide their environment through EnvironmentFile.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:     viper.GetString("mode"),
				Addr:     viper.GetString("addr"),
				Port:     viper.GetInt("port"),
				Data:     viper.GetString("data"),
				Driver:   viper.GetString("driver"),
				DSN:      viper.GetString("dsn"),
				LogLevel: viper.GetString("log-level"),
				Version:  version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			// The flag wins over AGENTHUB_MEMORY_BACKEND.
			if backend := viper.GetString("memory"); backend != "" {
				instanceProfile.MemoryBackend = backend
			}
			if err := instanceProfile.Validate(); err != nil {
				panic(err)
			}
			logging.Setup(instanceProfile.Mode, logging.ParseLevel(instanceProfile.LogLevel))

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				printDatabaseError(err, instanceProfile)
				slog.Error("failed to create db driver", "error", err)
				return
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("failed to start server", "error", err)
					cancel()
				}
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver for conversation history (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("memory", "", "conversation memory backend (memory, redis, sql)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "memory", "log-level"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("agenthub")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(versionCmd, ingestCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agenthub version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.String())
	},
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("AgentHub %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Memory backend: %s\n", profile.MemoryBackend)
	fmt.Printf("LLM: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	fmt.Printf("Mode: %s\n", profile.Mode)

	host := profile.Addr
	if host == "" {
		host = "localhost"
	}
	fmt.Printf("Server running on port %d\n", profile.Port)
	fmt.Printf("Chat endpoint: http://%s:%d/api/chat\n", host, profile.Port)
	fmt.Printf("Health check:  http://%s:%d/api/health\n", host, profile.Port)
	fmt.Println()
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError explains the common connection failures.
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")
	fmt.Fprintln(os.Stderr, strings.Repeat("-", 40))

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "\nPostgreSQL is not reachable.")
		if profile.Driver == "postgres" {
			fmt.Fprintf(os.Stderr, "   Check AGENTHUB_DSN or start the database.\n")
		}
		fmt.Fprintf(os.Stderr, "\n   Or keep history in SQLite:\n")
		fmt.Fprintf(os.Stderr, "   ./agenthub --driver=sqlite --data=./data\n")

	case strings.Contains(errMsg, "SSL is not enabled") || strings.Contains(errMsg, "sslmode"):
		fmt.Fprintln(os.Stderr, "\nPostgreSQL SSL configuration mismatch.")
		fmt.Fprintf(os.Stderr, "   Add ?sslmode=disable to your DSN.\n")

	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "\nPostgreSQL authentication failed.")
		fmt.Fprintf(os.Stderr, "   Check your credentials in the DSN or .env file.\n")

	case strings.Contains(errMsg, "unable to open database file"):
		fmt.Fprintln(os.Stderr, "\nSQLite database file could not be opened.")
		fmt.Fprintf(os.Stderr, "   Check that %s is writable.\n", profile.Data)

	default:
		fmt.Fprintln(os.Stderr, "\nError:", errMsg)
	}

	if _, statErr := os.Stat(".env"); statErr == nil {
		fmt.Fprintf(os.Stderr, "\nFound .env file: configuration loaded from current directory.\n")
	} else {
		fmt.Fprintf(os.Stderr, "\nTip: create a .env file for local configuration (see .env.example)\n")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
