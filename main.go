package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/cadence-music/cadence/internal/api"
	"github.com/cadence-music/cadence/internal/cache"
	"github.com/cadence-music/cadence/internal/config"
	"github.com/cadence-music/cadence/internal/constants"
	"github.com/cadence-music/cadence/internal/engine"
	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/player"
	"github.com/cadence-music/cadence/internal/structures"
	"github.com/cadence-music/cadence/internal/ui"
	"github.com/cadence-music/cadence/internal/version"
)

const banner = `
 ██████╗ █████╗ ██████╗ ███████╗███╗   ██╗ ██████╗███████╗
██╔════╝██╔══██╗██╔══██╗██╔════╝████╗  ██║██╔════╝██╔════╝
██║     ███████║██║  ██║█████╗  ██╔██╗ ██║██║     █████╗
██║     ██╔══██║██║  ██║██╔══╝  ██║╚██╗██║██║     ██╔══╝
╚██████╗██║  ██║██████╔╝███████╗██║ ╚████║╚██████╗███████╗
 ╚═════╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═══╝ ╚═════╝╚══════╝
                        music in the terminal`

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showFiles   = flag.Bool("files", false, "Show file locations")
		clearCache  = flag.Bool("clear-cache", false, "Clear cached audio and logs")
		showVersion = flag.Bool("version", false, "Show version")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}
	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	configDir, cacheDir, dataDir := getDirectories()

	if *showFiles {
		fmt.Println("# cadence file locations:")
		fmt.Printf("  Config: %s\n", configDir)
		fmt.Printf("  Cache:  %s\n", cacheDir)
		fmt.Printf("  Data:   %s\n", dataDir)
		fmt.Printf("  Logs:   %s\n", filepath.Join(dataDir, "cadence.log"))
		return
	}

	if *clearCache {
		runClearCache(cacheDir, dataDir, configDir)
		return
	}

	logFile := filepath.Join(dataDir, "cadence.log")
	logLevel := logger.INFO
	if *debugMode {
		logLevel = logger.DEBUG
	}
	if err := logger.Init(logFile, logLevel, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Credentials and API endpoint come from the environment; a .env next to
	// the binary is a convenience for development setups.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}
	baseURL := os.Getenv("CADENCE_API_URL")
	if baseURL == "" {
		showConnectionError(configDir)
		return
	}

	configPath := filepath.Join(configDir, "config.toml")
	cfg := loadConfiguration(configPath)

	store, err := cache.Open(filepath.Join(dataDir, "cadence.db"))
	if err != nil {
		logger.Fatal("Failed to open audio cache: %v", err)
	}
	defer store.Close()

	client := api.NewClient(baseURL, os.Getenv("CADENCE_ACCESS_TOKEN"), os.Getenv("CADENCE_REFRESH_TOKEN"))
	if email, password := os.Getenv("CADENCE_EMAIL"), os.Getenv("CADENCE_PASSWORD"); email != "" && password != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.Login(ctx, email, password); err != nil {
			logger.Warn("Login failed, continuing with existing tokens: %v", err)
		}
		cancel()
	}

	fetcher := engine.NewFetcher(store, filepath.Join(cacheDir, "audio"), cfg.MaxCacheSize*constants.MB)
	eng := engine.New(fetcher)
	coord := player.New(eng, player.Options{
		RestartThreshold: time.Duration(cfg.RestartThresholdSeconds * float64(time.Second)),
		Volume:           cfg.DefaultVolume,
	})
	defer coord.Close()

	model := ui.New(cfg, client, coord)

	var program ui.ProgramHandle
	stopWatch, err := config.Watch(configPath, func(updated *structures.Config) {
		program.Send(ui.ConfigReloadedMsg{Config: updated})
	})
	if err != nil {
		logger.Warn("Config watcher unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	logger.Debug("Starting UI")
	if err := ui.Run(model, program.Set); err != nil {
		logger.Fatal("Application error: %v", err)
	}

	logger.Info("cadence shutdown complete")
}

func getDirectories() (config, cache, data string) {
	// XDG Base Directory spec.
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		config = filepath.Join(xdgConfig, "cadence")
	} else if home, err := os.UserHomeDir(); err == nil {
		config = filepath.Join(home, ".config", "cadence")
	}

	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		cache = filepath.Join(xdgCache, "cadence")
	} else if home, err := os.UserHomeDir(); err == nil {
		cache = filepath.Join(home, ".cache", "cadence")
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		data = filepath.Join(xdgData, "cadence")
	} else if home, err := os.UserHomeDir(); err == nil {
		data = filepath.Join(home, ".local", "share", "cadence")
	}

	os.MkdirAll(config, 0755)
	os.MkdirAll(cache, 0755)
	os.MkdirAll(data, 0755)

	return
}

func loadConfiguration(configPath string) *structures.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("Failed to load config, using defaults: %v", err)
		cfg = config.Default()

		if err := config.Save(cfg, configPath); err != nil {
			logger.Warn("Failed to save default config: %v", err)
		} else {
			logger.Info("Created default config at: %s", configPath)
		}
	} else {
		logger.Debug("Configuration loaded from: %s", configPath)
	}
	return cfg
}

func runClearCache(cacheDir, dataDir, configDir string) {
	fmt.Println("WARNING: this will delete all cached audio, the cache database, and logs.")
	fmt.Print("Continue? (y/N): ")

	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "y" && confirm != "Y" {
		fmt.Println("Cache clearing cancelled.")
		return
	}

	if err := os.RemoveAll(cacheDir); err != nil {
		fmt.Printf("Failed to clear cache directory: %v\n", err)
	} else {
		fmt.Printf("Cleared cache directory: %s\n", cacheDir)
	}
	if err := os.RemoveAll(dataDir); err != nil {
		fmt.Printf("Failed to clear data directory: %v\n", err)
	} else {
		fmt.Printf("Cleared data directory: %s\n", dataDir)
	}
	fmt.Printf("Configuration in %s was preserved.\n", configDir)
}

func printHelp() {
	fmt.Println(banner)
	fmt.Println("\nUsage: cadence [OPTIONS]")
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
	fmt.Println("\nEnvironment:")
	fmt.Println("  CADENCE_API_URL        Base URL of the Cadence API (required)")
	fmt.Println("  CADENCE_ACCESS_TOKEN   Existing access token")
	fmt.Println("  CADENCE_REFRESH_TOKEN  Existing refresh token")
	fmt.Println("  CADENCE_EMAIL          Login email (alternative to tokens)")
	fmt.Println("  CADENCE_PASSWORD       Login password")
	fmt.Println("\nKeyboard shortcuts:")
	fmt.Println("  space       - Play/Pause")
	fmt.Println("  n / p       - Next / previous track")
	fmt.Println("  left/right  - Seek")
	fmt.Println("  + / -       - Volume")
	fmt.Println("  enter       - Play selection")
	fmt.Println("  a           - Add selection to queue")
	fmt.Println("  s           - Shuffle-play current list")
	fmt.Println("  q           - Queue view")
	fmt.Println("  f           - Search")
	fmt.Println("  r           - Remove track (queue view)")
	fmt.Println("  h / esc     - Home")
	fmt.Println("  ctrl+d      - Quit")
}

func showConnectionError(configDir string) {
	fmt.Println(banner)
	fmt.Println("\nNo API endpoint configured!")
	fmt.Println("Set CADENCE_API_URL (and credentials) in the environment or a .env file.")
	fmt.Printf("Config directory: %s\n", configDir)
}
