// Package database opens and provisions the Postgres database behind the document repository.
package database

import (
	"database/sql"
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/campus/core"
)

const (
	maintenanceDB = "postgres" // present on every server, used while the campus database may not exist
	pingAttempts  = 30
	pingBackoff   = 100 * time.Millisecond

	roleExistsQuery     = "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)"
	databaseExistsQuery = "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)"
)

//go:embed migrations/*.sql
var migrations embed.FS

// connect opens dbName on the configured server, as the admin user when asked and one is set.
var connect = func(conf *core.Config, dbName string, admin bool) (*sqlx.DB, error) { // mockable
	db, err := sqlx.Open(conf.Database.Engine, dsn(conf.Database, dbName, admin))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}
	return db, nil
}

var sleep = time.Sleep // mockable

func dsn(dbConf core.DatabaseConfig, dbName string, admin bool) string {
	usr := url.UserPassword(dbConf.User, dbConf.Password)
	if admin && dbConf.AdminUser != "" {
		usr = url.UserPassword(dbConf.AdminUser, dbConf.AdminPassword)
	}

	q := url.Values{"timezone": {"utc"}, "sslmode": {"require"}}
	if dbConf.DisableTLS {
		q.Set("sslmode", "disable")
	}
	u := url.URL{
		Scheme:   dbConf.Engine,
		User:     usr,
		Host:     dbConf.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open opens the campus database without waiting for the server.
func Open(conf *core.Config) (*sql.DB, error) {
	db, err := connect(conf, conf.Database.Name, false)
	if err != nil {
		return nil, err
	}
	return db.DB, nil
}

// OpenX opens the campus database and waits for it to be ready.
func OpenX(conf *core.Config) (*sqlx.DB, error) {
	db, err := connect(conf, conf.Database.Name, false)
	if err != nil {
		return nil, err
	}
	if err = waitReady(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitReady pings db until it answers, waiting pingBackoff longer after every failure.
func waitReady(db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		sleep(time.Duration(attempt) * pingBackoff)
	}
	return errors.Wrapf(err, "database not ready after %d attempts", pingAttempts)
}

// CreateIfNotExist provisions the campus database. The admin user creates the app role,
// which then creates the database and so owns it.
func CreateIfNotExist(conf *core.Config) error {
	dbConf := conf.Database

	admin, err := connect(conf, maintenanceDB, true)
	if err != nil {
		return err
	}
	err = waitReady(admin)
	if err == nil && dbConf.User != "" {
		err = createRole(admin, dbConf.User, dbConf.Password)
	}
	_ = admin.Close()
	if err != nil {
		return errors.Wrap(err, "provisioning app role")
	}

	app, err := connect(conf, maintenanceDB, false)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return errors.Wrap(createDatabase(app, dbConf.Name), "provisioning database")
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	if err := db.Get(&found, query, name); err != nil {
		return false, errors.Wrapf(err, "looking up %s", name)
	}
	return found, nil
}

func createRole(db *sqlx.DB, name, password string) error {
	found, err := exists(db, roleExistsQuery, name)
	if err != nil || found {
		return err
	}
	q := "CREATE ROLE " + pq.QuoteIdentifier(name) + " LOGIN CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(password)
	_, err = db.Exec(q)
	return errors.Wrapf(err, "creating role %s", name)
}

func createDatabase(db *sqlx.DB, name string) error {
	found, err := exists(db, databaseExistsQuery, name)
	if err != nil || found {
		return err
	}
	_, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name))
	return errors.Wrapf(err, "creating database %s", name)
}

// Migrate runs a goose command (up, down, status, redo, version...) with the embedded migrations.
func Migrate(db *sql.DB, command string, args ...string) error {
	if command == "" {
		command = "up"
	}
	if err := goose.RunFS(command, db, migrations, "migrations", args...); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
