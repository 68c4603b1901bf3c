// Command ledger is a terminal client for the expense tracker API. It keeps
// the same in-memory view the browser client does: load everything once,
// then filter, sort and total locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"expense-tracker-server/src/ledger"
	"expense-tracker-server/src/logger"
	"expense-tracker-server/src/models"

	"github.com/rs/zerolog/log"
)

const usage = `usage: ledger [-server URL] [-token TOKEN] <command> [flags]

commands:
  list     [-search s] [-filter all|income|expense] [-period all|this-month|last-month] [-sort newest|oldest|highest|lowest]
  summary
  add      -text s -category s -amount n [-date YYYY-MM-DD] [-type income|expense]
  edit     <id> [-text s] [-category s] [-amount n] [-date YYYY-MM-DD] [-type income|expense]
  delete   <id>
  export   [-o file]

LEDGER_SERVER and LEDGER_TOKEN set the defaults for -server and -token.
`

func main() {
	logger.Init(envOr("LOG_LEVEL", "warn"), "console")

	server := flag.String("server", envOr("LEDGER_SERVER", "http://localhost:5000"), "API base URL")
	token := flag.String("token", os.Getenv("LEDGER_TOKEN"), "bearer token")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := ledger.NewController(ledger.NewClient(*server, *token))
	if err := c.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "list":
		err = runList(c, args, os.Stdout)
	case "summary":
		err = runSummary(c, os.Stdout)
	case "add":
		err = runAdd(ctx, c, args, os.Stdout)
	case "edit":
		err = runEdit(ctx, c, args, os.Stdout)
	case "delete":
		err = runDelete(ctx, c, args, os.Stdout)
	case "export":
		err = runExport(c, args, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func runList(c *ledger.Controller, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "match text or category")
	direction := fs.String("filter", "all", "all, income or expense")
	period := fs.String("period", "all", "all, this-month or last-month")
	sort := fs.String("sort", "newest", "newest, oldest, highest or lowest")
	fs.Parse(args)

	var f ledger.Filter
	var err error
	f.Search = *search
	if f.Direction, err = ledger.ParseDirection(*direction); err != nil {
		return err
	}
	if f.Period, err = ledger.ParsePeriod(*period); err != nil {
		return err
	}
	if f.Sort, err = ledger.ParseSortOrder(*sort); err != nil {
		return err
	}
	c.SetFilter(f)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTEXT\tCATEGORY\tAMOUNT")
	n := 0
	for tx := range c.View() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date, tx.Text, tx.Category, strconv.FormatFloat(tx.Amount, 'f', 2, 64))
		n++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "No transactions found.")
	}
	return nil
}

func runSummary(c *ledger.Controller, out io.Writer) error {
	total, income, expense := c.Totals().Display()
	_, err := fmt.Fprintf(out, "Balance: %s\nIncome:  +%s\nExpense: -%s\n", total, income, expense)
	return err
}

type draftFlags struct {
	text, category, amount, date, kind *string
}

func newDraftFlags(fs *flag.FlagSet) draftFlags {
	return draftFlags{
		text:     fs.String("text", "", "description"),
		category: fs.String("category", "", "category"),
		amount:   fs.String("amount", "", "amount as a positive number"),
		date:     fs.String("date", "", "date (YYYY-MM-DD)"),
		kind:     fs.String("type", models.TypeExpense, "income or expense"),
	}
}

// apply copies only the flags the user actually set onto d.
func (df draftFlags) apply(fs *flag.FlagSet, d *ledger.Draft) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "text":
			d.Text = *df.text
		case "category":
			d.Category = *df.category
		case "amount":
			d.Amount = *df.amount
		case "date":
			d.Date = *df.date
		case "type":
			d.Type = *df.kind
		}
	})
}

func runAdd(ctx context.Context, c *ledger.Controller, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	df := newDraftFlags(fs)
	fs.Parse(args)

	d := ledger.Draft{Type: *df.kind}
	df.apply(fs, &d)
	tx, err := c.Submit(ctx, d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Added %s\n", tx.ID)
	return err
}

func runEdit(ctx context.Context, c *ledger.Controller, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("edit needs a transaction id")
	}
	id := args[0]
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	df := newDraftFlags(fs)
	fs.Parse(args[1:])

	d, ok := c.Edit(id)
	if !ok {
		return fmt.Errorf("no transaction %s", id)
	}
	df.apply(fs, &d)
	tx, err := c.Submit(ctx, d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Updated %s (version %d)\n", tx.ID, tx.Version)
	return err
}

func runDelete(ctx context.Context, c *ledger.Controller, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("delete needs a transaction id")
	}
	if err := c.Remove(ctx, args[0]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "Deleted %s\n", args[0])
	return err
}

func runExport(c *ledger.Controller, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	path := fs.String("o", "", "write to file instead of stdout")
	fs.Parse(args)

	if *path == "" {
		if err := c.Export(out); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out)
		return err
	}

	f, err := os.Create(*path)
	if err != nil {
		return err
	}
	if err := c.Export(f); err != nil {
		f.Close()
		os.Remove(*path)
		return err
	}
	return f.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
