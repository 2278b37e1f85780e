// Package config loads the Portfolio Finder configuration file.
//
// # Overview
//
// The config file carries the data platform credentials used to open the
// session, the request timeout applied to every call, the search endpoint
// and the location of the application log. Everything is optional: a missing
// file yields defaults and the session simply fails to authenticate until
// credentials are provided.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided (-config), use it
//  2. Otherwise, use ~/.config/portfolio-finder/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. PF_APP_KEY, PF_USERNAME and PF_PASSWORD override the file
//
// # TOML Format
//
//	log_file  = "~/.local/state/portfolio-finder/finder.log"
//	log_level = "info"
//
//	[session]
//	app_key       = "..."
//	username      = "..."
//	password      = "..."
//	client_secret = ""        # service accounts: set this and omit username
//	token_url     = "https://api.refinitiv.com/auth/oauth2/v1/token"
//	scopes        = ["trapi"]
//	timeout       = "30s"
//
//	[search]
//	endpoint   = "https://api.refinitiv.com/user-data/portfolio-management/v1/portfolios/search"
//	rate_limit = 5
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// parse errors and invalid durations. A missing file is NOT an error.
package config
