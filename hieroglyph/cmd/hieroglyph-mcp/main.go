package main

import (
	"context"
	"os"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/viant/mcp-protocol/authorization"
	oauthmeta "github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/scy/auth/flow"

	hgmcp "github.com/viant/mcp-hieroglyph/hieroglyph/mcp"
	hgservice "github.com/viant/mcp-hieroglyph/hieroglyph/service"
	mcpsrv "github.com/viant/mcp/server"
	serverauth "github.com/viant/mcp/server/auth"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	_ "github.com/viant/scy/kms/blowfish"
)

// Options defines CLI flags for the hieroglyph MCP server.
type Options struct {
	HTTPAddr     string `short:"a" long:"addr" description:"HTTP listen address (empty disables HTTP)" default:":7790"`
	Backend      string `short:"b" long:"backend" description:"Hieroglyph backend base URL" env:"HIEROGLYPH_BACKEND_URL"`
	BackendToken string `long:"backend-token" description:"Bearer token sent to the backend" env:"HIEROGLYPH_BACKEND_TOKEN"`
	Assets       string `long:"assets" description:"AFS base URL holding grapheme_NNN.png images and optional manifest.yaml" env:"HIEROGLYPH_ASSETS"`
	StateBase    string `long:"stateBase" description:"AFS base URL for persisting sessions (e.g., mem://localhost/mcp-hieroglyph); empty keeps them in memory"`
	Config       string `short:"c" long:"config" description:"YAML/JSON config file URL; flags take precedence"`
	Oauth2Config string `short:"o" long:"oauth2config" description:"Path to JSON OAuth2 configuration file (scy EncodedResource)"`
	UseIdToken   bool   `short:"i" long:"use-id-token" description:"Use ID token (instead of access token) for identity scoping"`
	UseData      bool   `long:"use-data" description:"Return structured content instead of JSON text"`
	LogLevel     string `short:"l" long:"log-level" description:"Log level (debug, info, warn, error)" default:"info"`
	Timeout      int    `short:"t" long:"timeout" description:"Backend call timeout in seconds"`
}

func main() {

	// Parse CLI flags
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		os.Exit(2)
	}
	logger := newLogger(opts.LogLevel)
	ctx := context.Background()

	cfg, err := hgservice.LoadConfig(ctx, opts.Config)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Merge(&hgservice.Config{
		BackendURL:     strings.TrimSpace(opts.Backend),
		BackendToken:   strings.TrimSpace(opts.BackendToken),
		AssetsBase:     strings.TrimSpace(opts.Assets),
		StateBase:      strings.TrimSpace(opts.StateBase),
		UseData:        opts.UseData,
		TimeoutSeconds: opts.Timeout,
		Logger:         &logger,
	})
	if cfg.AssetsBase == "" {
		logger.Warn().Msg("no grapheme assets configured; image tools and /hieroglyph/assets are disabled")
	}
	svc, err := hgservice.NewService(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init hieroglyph service")
	}

	// Base server options
	options := []mcpsrv.Option{
		mcpsrv.WithImplementation(schema.Implementation{Name: "hieroglyph-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(hgmcp.NewHandler(svc)),
		mcpsrv.WithEndpointAddress(opts.HTTPAddr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
		mcpsrv.WithCustomHTTPHandler(hgservice.HTTPPrefix, svc.HTTPHandler()),
	}

	// Optional: enable server-level OAuth2 via config
	if v := strings.TrimSpace(opts.Oauth2Config); v != "" {
		res := scy.EncodedResource(v).Decode(ctx, cred.Oauth2Config{})
		sec, err := scy.New().Load(ctx, res)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load oauth2config")
		}
		oauth2Config, ok := sec.Target.(*cred.Oauth2Config)
		if !ok {
			logger.Fatal().Msg("invalid oauth2config secret type")
		}
		authPolicy := &authorization.Policy{
			Global: &authorization.Authorization{UseIdToken: opts.UseIdToken, ProtectedResourceMetadata: &oauthmeta.ProtectedResourceMetadata{
				AuthorizationServers: []string{oauth2Config.Config.Endpoint.AuthURL},
			}},
			// Grapheme images stay public; /mcp and the session endpoints require a token
			ExcludeURI: "/sse,/hieroglyph/assets/",
		}

		header := flow.AuthorizationExchangeHeader
		bff := &serverauth.BackendForFrontend{Client: &oauth2Config.Config, AuthorizationExchangeHeader: header}
		authSvc, err := serverauth.New(&serverauth.Config{BackendForFrontend: bff, Policy: authPolicy})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init auth service")
		}
		options = append(options,
			mcpsrv.WithAuthorizer(authSvc.Middleware),
			mcpsrv.WithProtectedResourcesHandler(authSvc.ProtectedResourcesHandler),
		)
	}

	server, err := mcpsrv.New(options...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create MCP server")
	}
	if opts.HTTPAddr != "" {
		logger.Info().Str("addr", opts.HTTPAddr).Str("backend", cfg.BackendURL).Str("assets", cfg.AssetsBase).Int("graphemes", svc.Catalog().Len()).Msg("starting hieroglyph MCP server")
		// Enable streamable HTTP so /mcp endpoint is active
		server.UseStreamableHTTP(true)
		if err := server.HTTP(ctx, opts.HTTPAddr).ListenAndServe(); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}
}

// newLogger writes human readable logs to stderr at the requested level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
