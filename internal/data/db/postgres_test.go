package db

import (
	"testing"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	svc, err := Open(nil, Config{Driver: "sqlite", SQLitePath: "file:opentest?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.Close()
	if svc.Driver() != DriverSQLite {
		t.Fatalf("Open: expected sqlite driver, got=%s", svc.Driver())
	}
	if !svc.DB().Migrator().HasTable("transcript") {
		t.Fatalf("Open: expected transcript table")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(nil, Config{Driver: "mysql"}); err == nil {
		t.Fatalf("Open: expected error for unknown driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{PostgresHost: "h", PostgresPort: "5432", PostgresUser: "u", PostgresPassword: "p", PostgresName: "n"}
	if got := cfg.postgresDSN(); got != "postgres://u:p@h:5432/n?sslmode=disable" {
		t.Fatalf("postgresDSN: got=%s", got)
	}
}
