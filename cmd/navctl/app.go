package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/ndewijer/ledger-mf-companion/internal/config"
	"github.com/ndewijer/ledger-mf-companion/internal/ledgerapi"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// commands lists every navctl subcommand.
var commands = []subcommands.Command{
	&fundsCmd{},
	&portfolioCmd{},
	&navUpdateCmd{},
	&quoteCmd{},
}

// app holds the services a command works with.
type app struct {
	funds *service.FundService
	navs  *service.NavUpdateService
	out   io.Writer
}

// backend is the client surface navctl needs. *ledgerapi.Client satisfies it.
type backend interface {
	service.FundBackend
	service.NavBackend
}

// newApp builds the services from configuration. The CLI talks to the
// backend directly; every command makes a handful of reads so nothing is cached.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log.Level)
	client := ledgerapi.NewClient(
		ledgerapi.WithBaseURL(cfg.Backend.URL),
		ledgerapi.WithToken(cfg.Backend.Token),
		ledgerapi.WithTimeout(cfg.Backend.Timeout),
		ledgerapi.WithLogger(logger),
	)
	return newAppWith(ctx, client, service.NavUpdateConfig{
		FetchTimeout: cfg.NavUpdate.FetchTimeout,
		FetchRate:    cfg.NavUpdate.FetchRate,
	}, logger, os.Stdout), nil
}

func newAppWith(ctx context.Context, b backend, navCfg service.NavUpdateConfig, logger *logging.Logger, out io.Writer) *app {
	return &app{
		funds: service.NewFundService(b, logger),
		navs:  service.NewNavUpdateService(ctx, b, nil, navCfg, logger),
		out:   out,
	}
}

// ledgerArg validates the single ledger ID positional argument.
func ledgerArg(f *flag.FlagSet) (string, error) {
	if f.NArg() != 1 {
		return "", errors.New("expected exactly one ledger ID")
	}
	id := f.Arg(0)
	if err := validation.ValidateUUID(id); err != nil {
		return "", err
	}
	return id, nil
}

// fail prints err to stderr and returns the failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
