// Command zeroupctl records reviewer outcomes and runs maintenance jobs by hand.
package main

import (
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/zeroup-initiative/partner-backend/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cli.Execute(version)
}
