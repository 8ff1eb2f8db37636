package main

import (
	"errors"

	"github.com/trezcool/campus/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.openDB == nil {
		return errors.New("no database configured")
	}
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(db, args[0], arguments...)
}
