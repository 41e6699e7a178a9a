package main

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/kikitori/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	if tryExternalCommand(ctx) {
		return
	}

	app := newApp()
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "kiki %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

// app wires scope resolution to the backing services. The constructor
// fields are swappable so command tests can inject fakes.
type app struct {
	resolver *internal.ScopeResolver

	openStore   func(scope internal.Scope, cfg *internal.Config) (*internal.QuestionStore, error)
	newProvider func(ctx context.Context, cfg *internal.Config, name string) (internal.Provider, error)
}

func newApp() *app {
	return &app{
		resolver:    internal.NewScopeResolver(),
		openStore:   openStore,
		newProvider: newProvider,
	}
}

func openStore(scope internal.Scope, cfg *internal.Config) (*internal.QuestionStore, error) {
	embedder, err := internal.NewEmbedder(cfg.Embeddings)
	if err != nil {
		return nil, err
	}
	return internal.NewQuestionStore(scope.StorePath(), embedder,
		internal.WithStoreDimension(cfg.Embeddings.Dimension))
}

func newProvider(ctx context.Context, cfg *internal.Config, name string) (internal.Provider, error) {
	if name == "" {
		name = cfg.DefaultProvider
	}
	if name == "" {
		return nil, fmt.Errorf("no provider configured, run 'kiki provider add' first")
	}

	pc, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	return internal.NewFantasyProvider(ctx, internal.FantasyConfig{
		Provider: name,
		APIKey:   pc.APIKey,
		BaseURL:  pc.BaseURL,
		Model:    pc.Model,
	})
}

// scopeConfig resolves the scope from the persistent flag and loads its
// config.
func (a *app) scopeConfig(scopeHint string) (internal.Scope, *internal.Config, error) {
	scope := a.resolver.Resolve(scopeHint)
	cfg, err := internal.LoadConfig(scope)
	if err != nil {
		return internal.Scope{}, nil, err
	}
	return scope, cfg, nil
}
