// Command tracker runs the overlay's standalone bootstrap directory: it
// accepts Register frames and hands back a random sample of known peers.
package main

import (
	"flag"
	"fmt"
	"log"

	"meshchat/config"
	"meshchat/tracker"
)

var Version = "dev"

func main() {
	cfgPath := flag.String("config", "tracker.yaml", "Path to tracker config file")
	flag.Parse()

	fmt.Printf("meshchat tracker %s starting...\n", Version)

	cfg, err := config.LoadTracker(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	cfg.Print()

	t := tracker.NewTracker(*cfg.SampleSize)
	if err := t.Start(cfg.BindHost, fmt.Sprintf("%d", cfg.BindPort)); err != nil {
		log.Fatalf("tracker: %v", err)
	}
}
