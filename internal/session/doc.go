// Package session manages the authenticated data platform session.
//
// # Lifecycle
//
// A Session is created unopened at startup from the credentials in the
// config file and injected into the search client. The first search opens
// it; every later search reuses it. There is no logout: the session lives
// until the process exits. After the first successful Open the composition
// root registers it with SetDefault so other components can reach it via
// Default.
//
// # Grants
//
// Two OAuth2 grants are supported through golang.org/x/oauth2:
//
//   - password grant (app_key as client id, username and password)
//   - client credentials grant (app_key and client_secret, no username)
//
// Tokens refresh transparently through oauth2.ReuseTokenSource.
//
// # Events
//
// Authentication outcomes are reported through the callback registered with
// OnEvent rather than through Open's return value:
//
//	sess.OnEvent(func(ev session.Event) {
//		if ev.Code == session.EventAuthenticationFailed {
//			store.RecordAuthFailure(ev.Message)
//		}
//	})
//	if err := sess.Open(ctx); err != nil {
//		// invalid definition or token endpoint unreachable
//	}
//	if msg, failed := store.TakeAuthFailure(); failed {
//		// credentials rejected
//	}
package session
