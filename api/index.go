package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/app"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// Serverless file systems are ephemeral; DATABASE_URL should point at libSQL or PostgreSQL.
	a, err := app.New(cfg, zlog)
	if err != nil {
		panic(err)
	}
	mux = a.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
