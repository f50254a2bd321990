package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"librarian/internal/catalog"
	"librarian/internal/config"
	"librarian/internal/conflict"
	"librarian/internal/filename"
	"librarian/internal/logging"
	"librarian/internal/schema"
)

// OpenCatalogRequest describes a catalog opened on behalf of the CLI.
type OpenCatalogRequest struct {
	Config *config.Config
	Name   string
	Mode   catalog.LoadMode
	Logger *slog.Logger

	// In and Out back the interactive overwrite prompt. Nil means stdin and
	// stderr.
	In  io.Reader
	Out io.Writer

	// Seed values, used only when a fresh catalog is created.
	Description          string
	Schema               *schema.Schema
	RecognizedLabels     []string
	RecognizedExtensions []string
}

// OpenCatalog opens <catalog_root>/<name>/<name>.yaml with the collision,
// recognition, retry and locking policies of req.Config.
func OpenCatalog(ctx context.Context, req OpenCatalogRequest) (*catalog.Catalog, error) {
	cfg := req.Config
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: catalog name is required", catalog.ErrInvalidRequest)
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	resolver, err := ResolverFromConfig(cfg, req.In, req.Out)
	if err != nil {
		return nil, err
	}
	labelAction, err := filename.ParseAction(cfg.Catalog.UnrecognizedLabel)
	if err != nil {
		return nil, err
	}
	extAction, err := filename.ParseAction(cfg.Catalog.UnrecognizedExtension)
	if err != nil {
		return nil, err
	}

	sch := req.Schema
	if sch == nil {
		sch = schema.New(cfg.Catalog.Strict)
	}
	delay := cfg.LoadRetryDelay()
	if delay == 0 {
		// Zero in the config means retry at once; zero in Options means default.
		delay = -1
	}

	c, err := catalog.Open(ctx, catalog.Options{
		Name:                 name,
		Dir:                  cfg.CatalogDir(name),
		Description:          req.Description,
		Schema:               sch,
		RecognizedLabels:     req.RecognizedLabels,
		RecognizedExtensions: req.RecognizedExtensions,
		LoadMode:             req.Mode,
		Resolver:             resolver,
		LabelAction:          labelAction,
		ExtensionAction:      extAction,
		LoadAttempts:         cfg.Catalog.LoadAttempts,
		LoadDelay:            delay,
		LockTimeout:          cfg.LockTimeout(),
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", name, err)
	}
	return c, nil
}

// ResolverFromConfig maps catalog.overwrite to a conflict resolver. "ask"
// prompts on out and falls back to catalog.prompt_default.
func ResolverFromConfig(cfg *config.Config, in io.Reader, out io.Writer) (conflict.Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if cfg.Catalog.Overwrite != "ask" {
		decision, err := conflict.ParseDecision(cfg.Catalog.Overwrite)
		if err != nil {
			return nil, err
		}
		return conflict.Fixed(decision), nil
	}
	def, err := conflict.ParseDecision(cfg.Catalog.PromptDefault)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &conflict.Interactive{
		In:      in,
		Out:     out,
		Timeout: cfg.PromptTimeout(),
		Default: def,
	}, nil
}
