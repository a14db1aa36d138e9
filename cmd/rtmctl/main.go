// Command rtmctl is an operator CLI for the RTM Traders records API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/pkg/clients/dashboard"
)

const usage = `usage: rtmctl [-api URL] <command> [flags]

commands:
  login   -u USER -p PASSWORD   print a bearer token
  list    [-sort S] [-months N] list records
  summary [-months N]           print totals
  add     -date D -vehicle V ...  add a record
  delete  -id ID                delete a record

RTM_TOKEN supplies the bearer token for every command except login.`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "rtmctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("rtmctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	apiURL := global.String("api", defaultAPIURL(), "records API base URL")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := dashboard.NewClient(*apiURL, os.Getenv("RTM_TOKEN"))

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "login":
		return runLogin(ctx, client, cmdArgs, out)
	case "list":
		return runList(ctx, client, cmdArgs, out)
	case "summary":
		return runSummary(ctx, client, cmdArgs, out)
	case "add":
		return runAdd(ctx, client, cmdArgs, out)
	case "delete":
		return runDelete(ctx, client, cmdArgs, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func defaultAPIURL() string {
	if v := os.Getenv("RTM_API_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func runLogin(ctx context.Context, client dashboard.Client, args []string, out io.Writer) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("%w: login needs -u and -p", errUsage)
	}

	resp, err := client.Login(ctx, *username, *password)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp.Token)
	return nil
}

func runList(ctx context.Context, client dashboard.Client, args []string, out io.Writer) error {
	fs := newFlagSet("list")
	sortOrder := fs.String("sort", "date-desc", "date-asc, date-desc, profit-asc or profit-desc")
	months := fs.Int("months", 0, "only the last N months")
	if err := parse(fs, args); err != nil {
		return err
	}

	rows, err := client.ListRecords(ctx, dashboard.ListQuery{Sort: *sortOrder, Months: *months})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tVEHICLE\tROUTE\tTONS\tPROFIT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.VehicleNumber, route(r), r.WeightInTons, r.TotalProfit)
	}
	return tw.Flush()
}

func runSummary(ctx context.Context, client dashboard.Client, args []string, out io.Writer) error {
	fs := newFlagSet("summary")
	months := fs.Int("months", 0, "only the last N months")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := client.Summary(ctx, dashboard.ListQuery{Months: *months})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "loads:       %d\nprofit:      %.2f\ninvested:    %.2f\nextra spend: %.2f\n",
		s.TotalLoads, s.TotalProfit, s.TotalInvestment, s.TotalExtraSpend)
	return nil
}

func runAdd(ctx context.Context, client dashboard.Client, args []string, out io.Writer) error {
	fs := newFlagSet("add")
	date := fs.String("date", time.Now().Format(models.DateLayout), "load date (YYYY-MM-DD)")
	vehicle := fs.String("vehicle", "", "vehicle number")
	city := fs.String("city", "", "origin city")
	dest := fs.String("dest", "", "destination")
	weight := fs.Float64("weight", 0, "weight in tons")
	buy := fs.Float64("buy", 0, "rate per ton paid")
	sell := fs.Float64("sell", 0, "rate per ton fixed with the customer")
	spend := fs.Float64("spend", 0, "amount spent")
	extra := fs.Float64("extra", 0, "driver extras")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *vehicle == "" {
		return fmt.Errorf("%w: add needs -vehicle", errUsage)
	}
	if _, err := models.ParseDay(*date); err != nil {
		return fmt.Errorf("%w: -date must be YYYY-MM-DD", errUsage)
	}

	record := models.Record{
		Date:          *date,
		VehicleNumber: *vehicle,
		City:          *city,
		Destination:   *dest,
		WeightInTons:  models.Amount(*weight),
		RatePerTon:    models.Amount(*buy),
		AmountSpend:   models.Amount(*spend),
		RateWeFixed:   models.Amount(*sell),
		ExtraSpend:    models.Amount(*extra),
		TotalProfit:   models.Amount(*weight * (*sell - *buy)),
	}

	created, err := client.CreateRecord(ctx, record)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created record %s (profit %s)\n", created.ID, created.TotalProfit)
	return nil
}

func runDelete(ctx context.Context, client dashboard.Client, args []string, out io.Writer) error {
	fs := newFlagSet("delete")
	id := fs.String("id", "", "record id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return fmt.Errorf("%w: delete needs -id", errUsage)
	}

	if err := client.DeleteRecord(ctx, *id); err != nil {
		return err
	}

	fmt.Fprintf(out, "deleted record %s\n", *id)
	return nil
}

func route(r models.Record) string {
	switch {
	case r.City != "" && r.Destination != "":
		return r.City + " -> " + r.Destination
	case r.Destination != "":
		return r.Destination
	default:
		return r.City
	}
}
