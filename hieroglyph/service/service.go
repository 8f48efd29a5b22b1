package service

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	oa "github.com/viant/mcp-hieroglyph/auth"
	"github.com/viant/mcp-hieroglyph/hieroglyph/adapter"
	"github.com/viant/mcp-hieroglyph/hieroglyph/catalog"
)

// backend is the subset of adapter.Client the service calls.
type backend interface {
	AvailableGraphemes(ctx context.Context, graphemes []string) ([]string, error)
	ConfirmGraphemes(ctx context.Context, hieroglyph string, graphemes []string) (bool, error)
	RandomHieroglyph(ctx context.Context) (string, error)
	Translate(ctx context.Context, text string) ([]adapter.Token, error)
}

type Service struct {
	useText   bool
	auth      *oa.Service
	catalog   *catalog.Catalog
	api       backend
	fs        afs.Service
	stateBase string
	ttl       time.Duration
	columns   int
	logger    zerolog.Logger
	now       func() time.Time

	sessions *registry

	// Optional namespace binding override for this service instance
	boundNamespace string
}

// registry holds sessions keyed by namespace; shared by bound copies of Service.
type registry struct {
	mu    sync.Mutex
	items map[string]*session
}

func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	cat, err := catalog.Load(ctx, os.ExpandEnv(cfg.AssetsBase))
	if err != nil {
		return nil, err
	}
	timeout := 15 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	api := adapter.New(cfg.BackendURL,
		adapter.WithHTTPClient(&http.Client{Timeout: timeout}),
		adapter.WithToken(os.ExpandEnv(cfg.BackendToken)),
		adapter.WithLogger(logger.With().Str("component", "backend").Logger()),
	)
	ttlSecs := 86400
	if cfg.SessionTTLSeconds > 0 {
		ttlSecs = cfg.SessionTTLSeconds
	}
	columns := catalog.DefaultColumns
	if cfg.Columns > 0 {
		columns = cfg.Columns
	}
	return &Service{
		useText:   !cfg.UseData,
		auth:      oa.New(),
		catalog:   cat,
		api:       api,
		fs:        afs.New(),
		stateBase: strings.TrimRight(os.ExpandEnv(cfg.StateBase), "/"),
		ttl:       time.Duration(ttlSecs) * time.Second,
		columns:   columns,
		logger:    logger.With().Str("component", "hieroglyph").Logger(),
		now:       time.Now,
		sessions:  &registry{items: map[string]*session{}},
	}, nil
}

// Bound returns a shallow copy of the service bound to the provided namespace.
// Sessions are shared; only namespace resolution changes.
func (s *Service) Bound(namespace string) *Service {
	if s == nil {
		return nil
	}
	cp := *s
	cp.boundNamespace = strings.TrimSpace(namespace)
	return &cp
}

// Namespace returns the effective learner namespace for this request context,
// or "default" when not set.
func (s *Service) Namespace(ctx context.Context) string {
	if v := strings.TrimSpace(s.boundNamespace); v != "" {
		return v
	}
	if ns, err := s.auth.Namespace(ctx); err == nil && ns != "" {
		return ns
	}
	return oa.DefaultNamespace
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }
func (s *Service) UseTextField() bool        { return s.useText }
