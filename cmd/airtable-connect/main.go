package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"airtable-connect/internal/build"
	"airtable-connect/internal/cli"
)

// @title Airtable Connect API
// @version 1.0
// @description OAuth2 Authorization Code + PKCE вхід через Airtable
// @BasePath /
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
func main() {
	app := cli.NewApp()
	app.Name = "airtable-connect"
	app.Version = build.Version
	app.Usage = "Airtable OAuth2 connector with configuration management"

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
