package main

import (
	"flag"
	"log"

	"crimetrack/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to yaml config (optional, env vars override)")
	flag.Parse()
	if err := appbootstrap.Run(*configPath); err != nil {
		log.Fatalf("crimetrack: %v", err)
	}
}
