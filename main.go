package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/game"
	"github.com/iburimskiy/blockchain-backdrop/internal/term"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		envPath    = flag.String("env", ".env", "dotenv file with BACKDROP_* overrides")
		termMode   = flag.Bool("term", false, "draw in the terminal instead of a window")
		pickIcons  = flag.Bool("pick-icons", false, "choose the icon directory in a dialog before starting")
		logPath    = flag.String("log", "", "log file (terminal mode logs nowhere by default)")
		hud        = flag.Bool("hud", false, "show the status line")
		seed       = flag.Uint64("seed", 0, "random seed (0 keeps the configured one)")
	)
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load %s: %v", *envPath, err)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("config: %v", err)
	}
	if *hud {
		cfg.HUD = true
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := newLogger(*logPath, *termMode)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()

	if *pickIcons {
		dir, err := game.PickIconDir(cfg.Icons.Dir)
		if err != nil {
			logger.Printf("icon picker: %v", err)
		}
		cfg.Icons.Dir = dir
	}

	if *termMode {
		err = runTerm(cfg, logger)
	} else {
		err = game.New(cfg, logger).Run()
	}
	if err != nil {
		closeLog()
		log.Fatal(err)
	}
}

func runTerm(cfg config.Config, logger *log.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return term.New(cfg, screen, logger).Run(ctx)
}

// newLogger logs to path when set, otherwise to stdout; the terminal host
// owns stdout so it discards instead.
func newLogger(path string, termMode bool) (*log.Logger, func(), error) {
	const flags = log.LstdFlags | log.Lmicroseconds
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return log.New(f, "[backdrop] ", flags), func() { f.Close() }, nil
	case termMode:
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	return log.New(os.Stdout, "[backdrop] ", flags), func() {}, nil
}
