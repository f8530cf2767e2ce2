package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/ndewijer/ledger-mf-companion/internal/api/request"
	"github.com/ndewijer/ledger-mf-companion/internal/navupdate"
	"github.com/ndewijer/ledger-mf-companion/internal/valuation"
)

// filterFlags are the fund filters shared by funds and portfolio.
type filterFlags struct {
	owner      string
	amc        string
	assetClass string
	hideZero   bool
}

func (p *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.owner, "owner", "", "Only funds held by this owner (case-insensitive).")
	f.StringVar(&p.amc, "amc", "", "Only funds of this AMC ID.")
	f.StringVar(&p.assetClass, "asset-class", "", "Only funds of this asset class (case-insensitive).")
	f.BoolVar(&p.hideZero, "hide-zero", false, "Hide funds with zero units.")
}

func (p *filterFlags) filter() (valuation.Filter, error) {
	hide := ""
	if p.hideZero {
		hide = "true"
	}
	return request.ParseFundFilters(p.owner, p.amc, p.assetClass, hide)
}

type fundsCmd struct {
	filters filterFlags
}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "list a ledger's funds with their profit and loss" }
func (*fundsCmd) Usage() string {
	return `navctl funds [-owner <name>] [-amc <id>] [-asset-class <class>] [-hide-zero] <ledger-id>

  Prints every mutual fund of the ledger with units, NAV, current value and
  profit and loss.
`
}

func (p *fundsCmd) SetFlags(f *flag.FlagSet) { p.filters.register(f) }

func (p *fundsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledgerID, err := ledgerArg(f)
	if err != nil {
		return fail(err)
	}
	filter, err := p.filters.filter()
	if err != nil {
		return fail(err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	return a.listFunds(ctx, ledgerID, filter)
}

func (a *app) listFunds(ctx context.Context, ledgerID string, filter valuation.Filter) subcommands.ExitStatus {
	ledger, err := a.funds.LedgerContext(ctx, ledgerID)
	if err != nil {
		return fail(err)
	}
	rows, err := a.funds.ListFundValuations(ctx, ledgerID, filter)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Fund\tCode\tUnits\tNAV\tValue\tP&L\t%\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Name,
			r.Code,
			r.TotalUnits.StringFixed(3),
			r.LatestNav.StringFixed(4),
			valuation.FormatMoney(r.CurrentValue, ledger.Currency),
			valuation.FormatMoney(r.Pnl, ledger.Currency),
			valuation.FormatPercent(r.PnlPercentage),
		)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type portfolioCmd struct {
	filters filterFlags
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "summarise a ledger's mutual-fund portfolio" }
func (*portfolioCmd) Usage() string {
	return `navctl portfolio [-owner <name>] [-amc <id>] [-asset-class <class>] [-hide-zero] <ledger-id>

  Prints invested amount, current value and total profit and loss.
`
}

func (p *portfolioCmd) SetFlags(f *flag.FlagSet) { p.filters.register(f) }

func (p *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledgerID, err := ledgerArg(f)
	if err != nil {
		return fail(err)
	}
	filter, err := p.filters.filter()
	if err != nil {
		return fail(err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	return a.portfolio(ctx, ledgerID, filter)
}

func (a *app) portfolio(ctx context.Context, ledgerID string, filter valuation.Filter) subcommands.ExitStatus {
	s, err := a.funds.PortfolioSummary(ctx, ledgerID, filter)
	if err != nil {
		return fail(err)
	}

	fmt.Fprintf(a.out, "%s (%s), %d funds\n", s.LedgerName, s.Currency, s.FundCount)
	fmt.Fprintf(a.out, "Invested: %s\n", s.Display.TotalInvested)
	fmt.Fprintf(a.out, "Value:    %s\n", s.Display.TotalValue)
	fmt.Fprintf(a.out, "P&L:      %s (%s)\n", s.Display.TotalPnl, s.Display.PnlPercentage)
	return subcommands.ExitSuccess
}

type navUpdateCmd struct {
	apply bool
}

func (*navUpdateCmd) Name() string     { return "nav-update" }
func (*navUpdateCmd) Synopsis() string { return "fetch live NAVs and optionally apply the changes" }
func (*navUpdateCmd) Usage() string {
	return `navctl nav-update [-apply] <ledger-id>

  Fetches the live NAV of every fund with a scheme code and units, one fund
  at a time, and prints how each compares with the stored NAV. With -apply
  every changed NAV is written back in a single bulk update. Interrupting
  stops the run after the fund in flight.
`
}

func (p *navUpdateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.apply, "apply", false, "Apply every changed NAV.")
}

func (p *navUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledgerID, err := ledgerArg(f)
	if err != nil {
		return fail(err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	return a.navUpdate(ctx, ledgerID, p.apply)
}

func (a *app) navUpdate(ctx context.Context, ledgerID string, apply bool) subcommands.ExitStatus {
	report, err := a.navs.Run(ctx, ledgerID, apply)
	if err != nil {
		return fail(err)
	}
	snap := report.Snapshot

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Fund\tCode\tCurrent\tFetched\tChange\tStatus")
	for _, r := range snap.Rows {
		fetched, change := "-", "-"
		if r.FetchedNav.Valid {
			fetched = r.FetchedNav.Decimal.StringFixed(4)
		}
		if r.Status == navupdate.StatusActionable {
			change = valuation.FormatPercent(r.NavChangePercent).String()
		}
		status := string(r.Status)
		if r.ErrorMessage != "" {
			status += ": " + r.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Name, r.SchemeCode, r.CurrentNav.StringFixed(4), fetched, change, status)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}

	fmt.Fprintf(a.out, "\nProcessed %d of %d, %d failed, %d updates found",
		report.Run.Processed, report.Run.Total, report.Run.Failed, snap.UpdatesFound)
	if report.Run.Cancelled {
		fmt.Fprint(a.out, " (stopped)")
	}
	fmt.Fprintln(a.out)

	if report.Applied != nil {
		fmt.Fprintf(a.out, "Applied %d updates, value change %s\n",
			len(report.Applied.UpdatedFundIDs),
			valuation.FormatMoney(report.Applied.TotalChange, report.Applied.Currency))
	}
	return subcommands.ExitSuccess
}

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "fetch the live NAV of a scheme code" }
func (*quoteCmd) Usage() string {
	return `navctl quote <scheme-code>
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	return a.quote(ctx, f.Arg(0))
}

func (a *app) quote(ctx context.Context, schemeCode string) subcommands.ExitStatus {
	res, err := a.navs.Quote(ctx, schemeCode)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", res.SchemeCode, res.NavValue.Decimal.String(), res.NavDate)
	return subcommands.ExitSuccess
}
