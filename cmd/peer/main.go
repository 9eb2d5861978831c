// Command peer runs one node of the chat overlay: it registers with a
// tracker, accepts inbound connections, and bridges Say/Whisper traffic to
// a UI collaborator over the channel pair exposed by the server package.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meshchat/config"
	"meshchat/monitor"
	"meshchat/server"
	"meshchat/ui"
)

// Version is set at build time.
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to peer config file")
	headless := flag.Bool("headless", false, "Run without the terminal UI; useful for scripted peers")
	flag.Parse()

	fmt.Printf("meshchat peer %s starting...\n", Version)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	cfg.Print()

	loc := server.Location{City: cfg.Location.City, Lat: cfg.Location.Lat, Lng: cfg.Location.Lng}
	srv := server.New(cfg.Name, cfg.BindHost, fmt.Sprintf("%d", cfg.BindPort), *cfg.MaxIncoming, loc, 256)
	srv.AnnounceInterval = cfg.AnnounceInterval()

	if cfg.Monitor.Enabled {
		m := monitor.New()
		srv.Monitor = m
		go func() {
			if err := m.ListenAndServe(cfg.Monitor.ListenAddr); err != nil {
				log.Printf("monitor: stopped: %v", err)
			}
		}()
	}

	if cfg.MQTT.Enabled {
		handler, err := server.NewMQTTExtension(server.MQTTBridgeConfig{
			BrokerURL:   cfg.MQTT.BrokerURL,
			Topic:       cfg.MQTT.Topic,
			ExtensionID: cfg.MQTT.ExtensionID,
		})
		if err != nil {
			log.Printf("mqtt bridge: disabled: %v", err)
		} else {
			srv.RegisterExtension(cfg.MQTT.ExtensionID, handler)
		}
	}

	go func() {
		if err := srv.Start(cfg.TrackerHost, fmt.Sprintf("%d", cfg.TrackerPort)); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if *headless {
		sig := <-sigChan
		log.Printf("peer: received signal %v, shutting down", sig)
		srv.Close()
		return
	}

	app := ui.New(cfg.Name, srv.ToUI, srv.FromUI)
	go func() {
		<-sigChan
		app.Stop()
	}()
	if err := app.Run(); err != nil {
		log.Fatalf("ui: %v", err)
	}
	srv.Close()
}
