// Package app provides the orchestration layer for the Portfolio Finder application.
//
// Run is the composition root. It loads the config file and preferences,
// opens the application log, builds the session, search client and
// controller, and hands the controller to the UI. Run blocks until the UI
// exits.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      Read config.toml
//	       ├─────> prefs.Load()       Theme and maximum count
//	       ├─────> logging.OpenFile() Application log
//	       ├─────> session.New()      Unopened platform session
//	       ├─────> pam.NewClient()    Search client over the session
//	       ├─────> finder.New()       Connect-then-search controller
//	       └─────> ui.Run()           Start TUI (blocks)
//
// The session is opened lazily by the first search. Only configuration,
// preferences and log file errors are fatal; connection and search failures
// are reported in the status bar.
package app
