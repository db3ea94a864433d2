package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ivlev/swf2js/internal/config"
	"github.com/ivlev/swf2js/internal/engine"
	"github.com/ivlev/swf2js/internal/source"
	"github.com/ivlev/swf2js/internal/system"
)

var version = "dev"

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	cfg.BuildVersion = version

	for _, d := range []string{cfg.InputDir, cfg.OutputDir} {
		os.MkdirAll(d, 0755)
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestMovie(cfg.InputDir)
		if err != nil {
			log.Fatalf("[-] Error: %v. Put a movie .yaml into %s/", err, cfg.InputDir)
		}
		cfg.InputPath = latest
		fmt.Printf("[*] Selected movie: %s\n", cfg.InputPath)
	}

	if cfg.OutputPath == "" {
		base := filepath.Base(cfg.InputPath)
		name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
		cfg.OutputPath = filepath.Join(cfg.OutputDir, name+".js")
	}

	movie, err := source.ReadMovie(cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] Source error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewProject(&cfg, movie)
	if err := project.Run(ctx); err != nil {
		log.Fatalf("[-] Project error: %v", err)
	}

	fmt.Printf("[+++] Done! Output: %s\n", cfg.OutputPath)
}
