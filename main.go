package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nepwoop/leadflow/agent/gateway"
	"github.com/nepwoop/leadflow/agent/lead"
	"github.com/nepwoop/leadflow/agent/session"
	"github.com/nepwoop/leadflow/agent/tenant"
	"github.com/nepwoop/leadflow/pkg/blob"
	configx "github.com/nepwoop/leadflow/pkg/config"
	_ "github.com/nepwoop/leadflow/pkg/logger/autoload"
	"github.com/nepwoop/leadflow/server"
)

type AppConfig struct {
	Addr           string   `envconfig:"ADDR" default:":8000"`
	DataDir        string   `envconfig:"DATA_DIR" split_words:"true" default:"data"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" split_words:"true" default:"http://localhost:5173,http://localhost:5174,https://nepwoop.com"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	chatgptCfg := configx.MustNew[gateway.ProviderConfig]("OPENAI")
	deepseekCfg := configx.MustNew[gateway.ProviderConfig]("DEEPSEEK")
	gw, err := gateway.New(*chatgptCfg, *deepseekCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model gateway")
	}

	store := blob.NewFileStore(blob.WithDir(appCfg.DataDir))

	tenants, err := tenant.NewRegistry(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tenant registry")
	}
	ledger, err := lead.NewLedger(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load lead ledger")
	}
	manager, err := session.NewManager(store, tenants, gw, ledger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build session manager")
	}

	router := server.NewRouter(server.NewHandler(tenants, manager, ledger), appCfg.AllowedOrigins)

	log.Info().Str("addr", appCfg.Addr).Msg("starting server")
	if err := http.ListenAndServe(appCfg.Addr, router); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
