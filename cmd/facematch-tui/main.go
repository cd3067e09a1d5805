package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"facematch/internal/config"
	"facematch/internal/embedding/deepface"
	"facematch/internal/index"
	"facematch/internal/matcher"
	"facematch/internal/service"
	"facematch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; environment overrides apply)")
	logPath := flag.String("log", "facematch.log", "Engine log file (terminal is owned by the UI)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	setupLogging(cfg.LogLevel, *logPath)

	provider, err := deepface.NewClient(deepface.Config{
		BaseURL:   cfg.EmbedderURL,
		Model:     cfg.FaceModel,
		Detector:  cfg.FaceDetector,
		Dimension: cfg.Dimension(),
	})
	if err != nil {
		log.Fatalf("embedding provider: %v", err)
	}
	backend, err := index.New(cfg)
	if err != nil {
		log.Fatalf("index backend: %v", err)
	}
	engine, err := matcher.New(backend, matcher.Options{
		CollectionName: cfg.CollectionName(),
		Mode:           cfg.Mode,
		Dimension:      cfg.Dimension(),
		Threshold:      cfg.SimilarityThreshold,
		DefaultTopK:    cfg.TopKResults,
	})
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	svc := service.NewFaceService(provider, engine, slog.Default())

	if _, err := tea.NewProgram(tui.New(svc)).Run(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("bye")
}

// setupLogging sends engine logs to a file so they do not interleave
// with the terminal UI.
func setupLogging(level, path string) {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN", "WARNING":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	var w io.Writer = io.Discard
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		w = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
}
