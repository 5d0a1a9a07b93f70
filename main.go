package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: trestle-api-app <command> [flags]")
		fmt.Fprintln(os.Stderr, "Commands: serve, check")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(cmdServe())
	case "check":
		os.Exit(cmdCheck())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Commands: serve, check")
		os.Exit(1)
	}
}

func cmdServe() int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := config.DefaultFromEnv()

	var configPath string
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	fs.StringVar(&configPath, "config", "", "Path to a YAML credentials file")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log upstream requests and responses")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Dump full request and response bodies to stderr")
	fs.Parse(os.Args[2:])

	if configPath != "" {
		if err := config.LoadFile(configPath, cfg); err != nil {
			slog.Error("failed to load config file", "path", configPath, "error", err)
			return 1
		}
	}

	srv := server.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("lookup proxy starting", "host", cfg.Host, "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
		slog.Error("server error", "error", err)
		return 1
	}
	return 0
}

func cmdCheck() int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to a YAML credentials file")
	fs.Parse(os.Args[2:])

	cfg := config.DefaultFromEnv()
	if configPath != "" {
		if err := config.LoadFile(configPath, cfg); err != nil {
			slog.Error("failed to load config file", "path", configPath, "error", err)
			return 1
		}
	}

	fmt.Println("Provider credentials")
	printProvider("Enformion", cfg.EnformionAPIName != "" && cfg.EnformionAPIPassword != "", "ENFORMION_API_NAME, ENFORMION_API_PASSWORD")
	printProvider("People Data Labs", cfg.PeopleDataLabsAPIKey != "", "PEOPLEDATALABS_API_KEY")
	printProvider("Trestle", cfg.TrestleAPIKey != "", "TRESTLE_API_KEY")
	printProvider("Twilio", cfg.TwilioSID != "" && cfg.TwilioToken != "", "TWILIO_SID, TWILIO_TOKEN")
	return 0
}

func printProvider(name string, configured bool, envVars string) {
	if configured {
		fmt.Printf("  • %s: configured\n", name)
		return
	}
	fmt.Printf("  • %s: not configured (set %s)\n", name, envVars)
}
