package dataset

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	// Record rows hold image payloads, so they keep the default rowid layout.
	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE grp(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE record(
			id INTEGER PRIMARY KEY,
			grp INT NOT NULL,
			name TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			channels INT NOT NULL,
			format TEXT NOT NULL,
			pixels BLOB NOT NULL,
			char_bb TEXT NOT NULL,
			word_bb TEXT NOT NULL,
			txt TEXT NOT NULL
		);

		CREATE UNIQUE INDEX idx_record_grp_name ON record (grp, name);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE run(
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL,
			started INT NOT NULL,
			config TEXT NOT NULL
		);
	`))

	return migs
}
