package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/campus/core"
	emailsvc "github.com/trezcool/campus/services/email"
	logsvc "github.com/trezcool/campus/services/logger"
	restsvc "github.com/trezcool/campus/services/rest"
	"github.com/trezcool/campus/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	var mailer core.EmailService
	if conf.Debug {
		mailer = emailsvc.NewConsoleService(conf, os.Stdout)
	} else {
		mailer = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := newCommandLine(conf, logger, restsvc.NewClient(conf.API, logger, nil), mailer, os.Stdout)
	cli.openDB = func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		return database.Open(conf)
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
