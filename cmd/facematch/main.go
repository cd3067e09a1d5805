package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"facematch/internal/config"
	"facematch/internal/embedding/deepface"
	"facematch/internal/index"
	"facematch/internal/matcher"
	"facematch/internal/service"
)

const usage = `Usage: facematch [--config=config.yaml] <command> [flags]

Commands:
  register  -image <path> -name <name> -reg <registration number>
  identify  -image <path> [-topk <n>]
  info
  reset     [-confirm]
`

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; environment overrides apply)")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	setupLogging(cfg.LogLevel)

	svc, err := assemble(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	switch args[0] {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		image := fs.String("image", "", "Path to the face image")
		name := fs.String("name", "", "Person's display name")
		reg := fs.String("reg", "", "Unique registration number")
		_ = fs.Parse(args[1:])
		if *image == "" || *name == "" || *reg == "" {
			log.Fatal("register requires -image, -name and -reg")
		}
		if err := svc.RegisterFace(*image, *name, *reg); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		fmt.Printf("Registered %s (%s)\n", *name, strings.ToUpper(*reg))

	case "identify":
		fs := flag.NewFlagSet("identify", flag.ExitOnError)
		image := fs.String("image", "", "Path to the face image")
		topK := fs.Int("topk", cfg.TopKResults, "Maximum number of candidates")
		_ = fs.Parse(args[1:])
		if *image == "" {
			log.Fatal("identify requires -image")
		}
		results, err := svc.IdentifyFace(*image, *topK)
		if err != nil {
			if errors.Is(err, service.ErrNoFace) {
				log.Fatal("no face detected in image")
			}
			log.Fatalf("identify failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No match above threshold.")
			return
		}
		for i, r := range results {
			fmt.Printf("%d. %s (%s)  similarity=%.4f  distance=%.4f\n",
				i+1, r.Name, r.RegistrationNumber, r.SimilarityScore, r.Distance)
		}

	case "info":
		info := svc.DatabaseInfo()
		records := "N/A"
		if info.TotalRecords >= 0 {
			records = fmt.Sprintf("%d", info.TotalRecords)
		}
		fmt.Printf("collection:  %s\nmode:        %s\ndimension:   %d\nmetric:      %s\nthreshold:   %.2f\nexists:      %v\nrecords:     %s\n",
			info.CollectionName, info.Mode, info.Dimension, info.MetricType, info.Threshold, info.Exists, records)

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ExitOnError)
		confirm := fs.Bool("confirm", false, "Confirm irreversible deletion of all records")
		_ = fs.Parse(args[1:])
		if err := svc.Reset(*confirm); err != nil {
			log.Fatalf("reset failed: %v", err)
		}
		fmt.Println("Collection dropped and recreated.")

	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}

// assemble builds the process-scoped component graph: embedding
// provider, index backend and matching engine are constructed once and
// shared for the process lifetime.
func assemble(cfg *config.Config) (*service.FaceService, error) {
	provider, err := deepface.NewClient(deepface.Config{
		BaseURL:   cfg.EmbedderURL,
		Model:     cfg.FaceModel,
		Detector:  cfg.FaceDetector,
		Dimension: cfg.Dimension(),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	backend, err := index.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("index backend: %w", err)
	}
	engine, err := matcher.New(backend, matcher.Options{
		CollectionName: cfg.CollectionName(),
		Mode:           cfg.Mode,
		Dimension:      cfg.Dimension(),
		Threshold:      cfg.SimilarityThreshold,
		DefaultTopK:    cfg.TopKResults,
	})
	if err != nil {
		return nil, err
	}
	return service.NewFaceService(provider, engine, slog.Default()), nil
}

func setupLogging(level string) {
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
