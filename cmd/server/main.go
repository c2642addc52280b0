package main

import (
	"cmp"
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	_ "indexviz/internal/catalog/fetchers"

	"indexviz/internal/catalog"
	"indexviz/internal/logger"
	"indexviz/internal/server"
	"indexviz/pkg/config"
)

var defaultPort = 8080

func main() {
	// flags
	cfgPath := flag.String("config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	driverFlag := flag.String("driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	dsnFlag := flag.String("dsn", "", "dsn override")
	port := flag.Int("port", 0, "http port (overrides config, default"+fmt.Sprintf(" %d)", defaultPort))
	timeout := flag.Int("timeout", 10, "db connect timeout seconds")
	webdir := flag.String("web", filepath.Join(".", "web"), "web ui directory")
	flag.Parse()

	// attempt to load config file (optional), then overlay environment
	var appCfg config.AppConfig
	if cfgPath != nil {
		logger.Info("config file %s", *cfgPath)
		if c, err := config.LoadFile(*cfgPath); err == nil {
			appCfg = c
		} else {
			logger.Error("error reading config file: %v", err)
		}
	}
	appCfg = config.FromEnv(appCfg)

	// allow CLI overrides
	if *driverFlag != "" && *dsnFlag != "" {
		appCfg.Database = config.DBConfig{Type: *driverFlag, DSN: *dsnFlag}
	}

	*port = cmp.Or(*port, appCfg.Server.Port, defaultPort)

	srv := server.New(appCfg.Database, *timeout)
	mux := http.NewServeMux()
	srv.Routes(mux, *webdir)

	addr := fmt.Sprintf(":%d", *port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Info("listening on %s, serving %s", addr, *webdir)
	logger.Info("registered dialects: %v", catalog.RegisteredDialects())
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Fatal("%v", err)
	}
}
