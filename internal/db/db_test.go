package db

import (
	"testing"

	"github.com/zeroup-initiative/partner-backend/internal/config"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "u", DBPassword: "p", DBName: "zeroup", DBPort: "3306"}
	tests := []struct {
		name     string
		host     string
		instance string
		want     string
	}{
		{"plain host", "10.0.0.5", "", "u:p@tcp(10.0.0.5:3306)/zeroup?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"tcp prefix", "tcp(db:3307)", "", "u:p@tcp(db:3307)/zeroup?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"socket path", "/var/run/mysqld.sock", "", "u:p@unix(/var/run/mysqld.sock)/zeroup?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"cloud sql", "ignored", "proj:region:inst", "u:p@unix(/cloudsql/proj:region:inst)/zeroup?charset=utf8mb4&parseTime=True&loc=UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.instance
			if got := BuildDSN(&cfg); got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}
