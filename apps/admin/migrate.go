package main

import (
	"database/sql"
	"io/fs"

	"github.com/trezcool/goose"

	appfs "github.com/sacelhq/sacel/fs"
)

var gooseRunFunc func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, "migrations", arguments...)
}
