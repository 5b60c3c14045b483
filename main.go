package main

import (
	"flag"
	"log"

	"fitsink/internal/di"
	"fitsink/internal/structures"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	debug := flag.Bool("debug", false, "enable debug logging and console output")
	flag.Parse()

	_, err := di.InitApp(&structures.CliFlags{
		ConfigPath: *configPath,
		DebugMode:  *debug,
	})
	if err != nil {
		log.Fatalf("fitsink: %s", err)
	}
}
