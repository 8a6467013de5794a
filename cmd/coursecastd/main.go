// Command coursecastd is the media ingestion, compositing, and recording
// server: it exposes the recording session lifecycle over HTTP and the
// signaling plane over a websocket upgrade.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/coursecast/coursecast/authz"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/env"
	"github.com/coursecast/coursecast/helpers"
	"github.com/coursecast/coursecast/httpapi"
	"github.com/coursecast/coursecast/hub"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/store"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file, overriding built-in defaults")
	cert       = flag.String("cert", "", "cert file")
	key        = flag.String("key", "", "key file")
)

func main() {
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			log.Warn().Str("context", "main").Err(err).Msg("config_load_failed_using_defaults")
		}
	}

	if err := helpers.EnsureDir(env.RecordingsDir); err != nil {
		log.Fatal().Str("context", "main").Err(err).Msg("recordings_dir_unavailable")
	}

	metaStore, err := store.NewFileStore(env.RecordingsDir + "/metadata.ndjson")
	if err != nil {
		log.Fatal().Str("context", "main").Err(err).Msg("metadata_store_unavailable")
	}

	// Reference enrollment: every division's teacher roster. A production
	// deployment would back this with its own enrollment service; it's
	// passed in as an Authorizer so swapping it out never touches this
	// package.
	az := authz.NewRoleTable(map[string][]string{})

	registry := session.NewRegistry()
	manager := session.New(registry, az, metaStore, config.Current)
	roomHub := hub.New()

	api := httpapi.New(manager, roomHub, config.Current.Room, env.AllowedOrigins)
	router := api.Router(env.WebPrefix)

	srv := &http.Server{
		Handler:      router,
		Addr:         ":" + env.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	if *cert != "" && *key != "" {
		log.Info().Str("context", "main").Str("addr", srv.Addr).Msg("listening_https")
		log.Fatal().Err(srv.ListenAndServeTLS(*cert, *key)).Send()
	} else {
		log.Info().Str("context", "main").Str("addr", srv.Addr).Msg("listening_http")
		log.Fatal().Err(srv.ListenAndServe()).Send()
	}

	os.Exit(0)
}
