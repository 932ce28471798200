package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/sanusharma-ui/chat/cmd/server/config"
	"github.com/sanusharma-ui/chat/internal/logging"
	"github.com/sanusharma-ui/chat/internal/server"
	"github.com/sanusharma-ui/chat/internal/signaling"
)

func main() {
	configFilePath := flag.String("config", "", "Path to an optional config file")
	flag.Parse()

	config.Load(*configFilePath)
	logging.Init(viper.GetString("loglevel"))

	// One registry per process; everything that mutates room membership
	// goes through it.
	registry := signaling.NewRegistry(slog.Default())

	http.HandleFunc("/health", server.Health)
	http.HandleFunc("/create-room", server.CreateRoom(registry))
	http.HandleFunc("/ws", server.ServeWs(registry))

	addr := viper.GetString("addr")
	slog.Info("starting signaling server", "addr", addr)

	log.Fatal(http.ListenAndServe(addr, nil))
}
