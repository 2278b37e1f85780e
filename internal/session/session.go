package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotOpen is returned by Do before a successful Open.
var ErrNotOpen = errors.New("session is not open")

const defaultTimeout = 30 * time.Second

// Definition holds the credentials and endpoints used to open a session.
type Definition struct {
	AppKey       string
	Username     string
	Password     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration
}

// ServiceAccount reports whether the definition uses the client-credentials grant.
func (d Definition) ServiceAccount() bool {
	return strings.TrimSpace(d.ClientSecret) != "" && strings.TrimSpace(d.Username) == ""
}

// Validate reports a definition that can never authenticate.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.TokenURL) == "" {
		return fmt.Errorf("session definition: token url is required")
	}
	if strings.TrimSpace(d.AppKey) == "" {
		return fmt.Errorf("session definition: app key is required")
	}
	if d.ServiceAccount() {
		return nil
	}
	if strings.TrimSpace(d.Username) == "" || d.Password == "" {
		return fmt.Errorf("session definition: username and password (or client_secret) are required")
	}
	return nil
}

// EventCode identifies a session event.
type EventCode int

const (
	EventAuthenticationSucceeded EventCode = iota
	EventAuthenticationFailed
)

func (c EventCode) String() string {
	if c == EventAuthenticationFailed {
		return "authentication failed"
	}
	return "authentication succeeded"
}

// Event is delivered to the handler registered with OnEvent.
type Event struct {
	Code    EventCode
	Message string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithHTTPClient sets the client used for token requests. Its transport also
// carries the authenticated API traffic.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.base = client
		}
	}
}

// Session is an authenticated connection to the data platform. It is opened
// at most once and then reused for the life of the process.
type Session struct {
	def    Definition
	logger zerolog.Logger
	base   *http.Client

	mu      sync.Mutex
	handler func(Event)
	client  *http.Client
}

// New creates an unopened session.
func New(def Definition, opts ...Option) *Session {
	if def.Timeout <= 0 {
		def.Timeout = defaultTimeout
	}
	s := &Session{
		def:    def,
		logger: zerolog.Nop(),
		base:   &http.Client{Timeout: def.Timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEvent registers the callback for authentication events. The callback runs
// on the goroutine calling Open, before Open returns.
func (s *Session) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// IsOpen reports whether Open has succeeded.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Open authenticates against the token endpoint. A rejected credential is
// reported through EventAuthenticationFailed and does not make Open return an
// error; an invalid definition or an unreachable token endpoint does.
// Opening an already open session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	if s.IsOpen() {
		return nil
	}
	if err := s.def.Validate(); err != nil {
		return err
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, s.base)
	requestCtx := context.WithValue(ctx, oauth2.HTTPClient, s.base)

	var (
		src oauth2.TokenSource
		tok *oauth2.Token
		err error
	)
	if s.def.ServiceAccount() {
		conf := &clientcredentials.Config{
			ClientID:     s.def.AppKey,
			ClientSecret: s.def.ClientSecret,
			TokenURL:     s.def.TokenURL,
			Scopes:       s.def.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		tok, err = conf.Token(requestCtx)
		src = conf.TokenSource(tokenCtx)
	} else {
		conf := &oauth2.Config{
			ClientID:     s.def.AppKey,
			ClientSecret: s.def.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: s.def.TokenURL, AuthStyle: oauth2.AuthStyleInParams},
			Scopes:       s.def.Scopes,
		}
		tok, err = conf.PasswordCredentialsToken(requestCtx, s.def.Username, s.def.Password)
		if err == nil {
			src = conf.TokenSource(tokenCtx, tok)
		}
	}

	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) {
			msg := fmt.Sprintf("Session authentication failed: %s Refer to the config file for setting credentials.", retrieveDetail(retrieve))
			s.logger.Warn().Str("error_code", retrieve.ErrorCode).Msg("session authentication failed")
			s.emit(Event{Code: EventAuthenticationFailed, Message: msg})
			return nil
		}
		s.logger.Warn().Err(err).Msg("session open failed")
		return fmt.Errorf("open session: %w", err)
	}

	client := oauth2.NewClient(tokenCtx, oauth2.ReuseTokenSource(tok, src))
	client.Timeout = s.def.Timeout

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	s.logger.Info().Bool("service_account", s.def.ServiceAccount()).Time("expiry", tok.Expiry).Msg("session opened")
	s.emit(Event{Code: EventAuthenticationSucceeded, Message: "Session opened"})
	return nil
}

// HTTPClient returns the authenticated client, or nil before Open succeeds.
func (s *Session) HTTPClient() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Do sends req with the session's bearer token.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	client := s.HTTPClient()
	if client == nil {
		return nil, ErrNotOpen
	}
	return client.Do(req)
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	fn := s.handler
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func retrieveDetail(err *oauth2.RetrieveError) string {
	detail := strings.TrimSpace(err.ErrorDescription)
	if detail == "" {
		detail = strings.TrimSpace(err.ErrorCode)
	}
	if detail == "" && err.Response != nil {
		detail = err.Response.Status
	}
	if detail != "" && !strings.HasSuffix(detail, ".") {
		detail += "."
	}
	return detail
}

var (
	defaultMu      sync.RWMutex
	defaultSession *Session
)

// SetDefault registers s as the process-wide session. It is called once after
// the first successful Open; the session is never closed.
func SetDefault(s *Session) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSession = s
}

// Default returns the process-wide session, or nil before SetDefault.
func Default() *Session {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSession
}
