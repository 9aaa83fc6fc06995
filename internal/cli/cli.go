// Package cli implements the gofast-server command-line entrypoint,
// following the teacher's cmd.go Cobra/Viper wiring (spec.md §2).
package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gofast/internal/config"
	"gofast/internal/server"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "gofast-server",
	Short: "gofast-server - an in-memory key-value engine",
	Long: `gofast-server is a single-threaded, event-driven in-memory
key-value engine with Redis-compatible commands over RESP: strings,
lists, hashes, sets and sorted sets, key expiration and configurable
eviction under a memory ceiling.`,
	Version: version,
	RunE:    runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	maxMemory, err := cfg.ParseMemorySize()
	if err != nil {
		return err
	}

	log.Printf("starting gofast-server v%s", version)
	log.Printf("listening on %s:%d", cfg.Host, cfg.Port)
	log.Printf("max memory: %s, eviction policy: %s, databases: %d", cfg.MaxMemory, cfg.EvictionPolicy, cfg.Databases)

	usedMemory := func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.HeapAlloc)
	}
	srv, err := server.New(server.Config{
		BindAddr:             cfg.Host,
		Port:                 cfg.Port,
		MaxClients:           cfg.MaxClients,
		CronPeriod:           cfg.CronPeriod,
		NumDatabases:         cfg.Databases,
		MaxMemory:            maxMemory,
		EvictionPol:          cfg.EvictionPolicy,
		MaxInputBufferBytes:  cfg.MaxInputBufferBytes,
		MaxWriteBytesPerLoop: cfg.MaxWriteBytesPerLoop,
		MaxAcceptsPerLoop:    cfg.MaxAcceptsPerLoop,
	}, usedMemory)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go srv.Run()

	<-sigChan
	log.Println("shutting down")
	srv.Stop()
	log.Println("stopped")

	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("gofast-server configuration:")
		fmt.Println(strings.Repeat("=", 31))
		fmt.Printf("Host: %s\n", cfg.Host)
		fmt.Printf("Port: %d\n", cfg.Port)
		fmt.Printf("Unix Socket: %s\n", cfg.UnixSocket)
		fmt.Printf("Max Memory: %s\n", cfg.MaxMemory)
		fmt.Printf("Max Clients: %d\n", cfg.MaxClients)
		fmt.Printf("Eviction Policy: %s\n", cfg.EvictionPolicy)
		fmt.Printf("Databases: %d\n", cfg.Databases)
		fmt.Printf("Cron Period: %v\n", cfg.CronPeriod)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Log Format: %s\n", cfg.LogFormat)
		fmt.Printf("TCP Keep-Alive: %t\n", cfg.TCPKeepAlive)
		fmt.Printf("TCP Backlog: %d\n", cfg.TCPBacklog)
		fmt.Printf("Max Input Buffer Bytes: %d\n", cfg.MaxInputBufferBytes)
		fmt.Printf("Max Write Bytes Per Loop: %d\n", cfg.MaxWriteBytesPerLoop)
		fmt.Printf("Max Accepts Per Loop: %d\n", cfg.MaxAcceptsPerLoop)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gofast-server v%s\n", version)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("host", "H", "localhost", "Host to bind to")
	rootCmd.PersistentFlags().IntP("port", "p", 6379, "Port to listen on")
	rootCmd.PersistentFlags().String("unix-socket", "", "Unix socket path to bind to")
	rootCmd.PersistentFlags().String("max-memory", "0", "Maximum memory to use (e.g., 512MB, 2GB); 0 means no limit")
	rootCmd.PersistentFlags().Int("max-clients", 10000, "Maximum number of clients")
	rootCmd.PersistentFlags().String("eviction-policy", "no-eviction", "Eviction policy when max-memory is reached")
	rootCmd.PersistentFlags().Int("databases", 16, "Number of selectable databases")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Client idle timeout (0 disables)")
	rootCmd.PersistentFlags().Duration("cron-period", 100*time.Millisecond, "Server cron tick period")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Bool("tcp-keepalive", true, "Enable TCP keep-alive")
	rootCmd.PersistentFlags().Int("tcp-backlog", 511, "TCP listen backlog")
	rootCmd.PersistentFlags().Int64("max-input-buffer-bytes", 1<<30, "Per-client input buffer cap before the connection is closed")
	rootCmd.PersistentFlags().Int("max-write-bytes-per-loop", 64*1024, "Per-client write byte cap per writable event")
	rootCmd.PersistentFlags().Int("max-accepts-per-loop", 10, "Max accept() calls per readable event on the listening socket")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("unix_socket", rootCmd.PersistentFlags().Lookup("unix-socket"))
	viper.BindPFlag("max_memory", rootCmd.PersistentFlags().Lookup("max-memory"))
	viper.BindPFlag("max_clients", rootCmd.PersistentFlags().Lookup("max-clients"))
	viper.BindPFlag("eviction_policy", rootCmd.PersistentFlags().Lookup("eviction-policy"))
	viper.BindPFlag("databases", rootCmd.PersistentFlags().Lookup("databases"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("cron_period", rootCmd.PersistentFlags().Lookup("cron-period"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("tcp_keepalive", rootCmd.PersistentFlags().Lookup("tcp-keepalive"))
	viper.BindPFlag("tcp_backlog", rootCmd.PersistentFlags().Lookup("tcp-backlog"))
	viper.BindPFlag("max_input_buffer_bytes", rootCmd.PersistentFlags().Lookup("max-input-buffer-bytes"))
	viper.BindPFlag("max_write_bytes_per_loop", rootCmd.PersistentFlags().Lookup("max-write-bytes-per-loop"))
	viper.BindPFlag("max_accepts_per_loop", rootCmd.PersistentFlags().Lookup("max-accepts-per-loop"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute is the main entry point for the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
