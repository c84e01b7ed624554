package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/grafana/dskit/flagext"

	"github.com/grafana/mqlmatch/pkg/mql"
	util_log "github.com/grafana/mqlmatch/pkg/util/log"
)

func main() {
	app := kingpin.New("mql-inspect", "A command-line tool to encode documents and evaluate match filters.")
	configFile := app.Flag("config.file", "YAML configuration file.").String()

	var cfg mql.Config
	loadConfig := func(*kingpin.ParseContext) error {
		if *configFile != "" {
			loaded, err := mql.LoadConfig(*configFile)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			flagext.DefaultValues(&cfg)
		}

		_, err := util_log.InitLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		return err
	}
	app.PreAction(loadConfig)

	addEncodeCommand(app, &cfg)
	addMatchCommand(app, &cfg)
	addExplainCommand(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}
