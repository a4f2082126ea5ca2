package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/internal/config"
	"github.com/semanticallynull/bikemap/internal/o11y"
	"github.com/semanticallynull/bikemap/screen"
	"github.com/semanticallynull/bikemap/viewmodel"
)

// env is bound into every command's Run.
type env struct {
	ctx context.Context
	vm  *viewmodel.ViewModel
	out io.Writer
}

type bikesCmd struct {
	Type string `name:"type" short:"t" help:"Only show bikes of this type (Electric, Mountain, Road, Other)."`
}

func (c *bikesCmd) Run(e *env) error {
	filter, err := bike.ParseFilter(c.Type)
	if err != nil {
		return err
	}
	m := screen.NewMap(e.vm)
	if st := m.Init(e.ctx); st.Err != nil {
		return fmt.Errorf("bike inventory unavailable: %w", st.Err)
	}
	m.SetFilter(filter)
	return printBikes(e.out, m.Visible())
}

type showCmd struct {
	ID string `arg:"" help:"Bike id."`
}

func (c *showCmd) Run(e *env) error {
	b, err := e.vm.Bicycle(e.ctx, c.ID)
	if err != nil {
		return err
	}
	d := screen.NewDetails(e.vm, b)
	d.Init(e.ctx)

	fmt.Fprintf(e.out, "%s\n", b.Title())
	fmt.Fprintf(e.out, "  id:       %s\n", b.ID)
	fmt.Fprintf(e.out, "  type:     %s\n", b.Type)
	fmt.Fprintf(e.out, "  location: %.5f, %.5f\n", b.Latitude, b.Longitude)
	if d.Reserved() {
		fmt.Fprintln(e.out, screen.AlreadyReservedMessage)
	}
	return nil
}

type reserveCmd struct {
	ID string `arg:"" help:"Bike id."`
}

func (c *reserveCmd) Run(e *env) error {
	b, err := e.vm.Bicycle(e.ctx, c.ID)
	if err != nil {
		return err
	}
	d := screen.NewDetails(e.vm, b)
	if d.Init(e.ctx); d.Reserved() {
		return fmt.Errorf("bike %s: %s", b.ID, screen.AlreadyReservedMessage)
	}
	conf, err := d.Reserve(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %s\n", conf.Title, conf.Message)
	return nil
}

type cancelCmd struct {
	ID string `arg:"" help:"Bike id."`
}

func (c *cancelCmd) Run(e *env) error {
	r := screen.NewReservations(e.vm)
	conf, err := r.Cancel(e.ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %s\n", conf.Title, conf.Message)
	return nil
}

type reservationsCmd struct{}

func (c *reservationsCmd) Run(e *env) error {
	r := screen.NewReservations(e.vm)
	r.Init(e.ctx)
	if r.Empty() {
		fmt.Fprintln(e.out, screen.NoReservationsMessage)
		return nil
	}
	return printBikes(e.out, r.State().Data)
}

type clearCmd struct{}

func (c *clearCmd) Run(e *env, comps *config.Components) error {
	if err := comps.Ledger.Clear(e.ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Reservations cleared")
	return nil
}

func printBikes(out io.Writer, bikes []bike.Bicycle) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBIKE\tTYPE\tPIN\tLAT\tLNG\tRESERVED")
	for _, b := range bikes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.5f\t%.5f\t%t\n",
			b.ID, b.Title(), b.Type, bike.PinColor(b.Type), b.Latitude, b.Longitude, b.Reserved)
	}
	return tw.Flush()
}

var cli struct {
	config.Config `embed:""`

	Bikes        bikesCmd        `cmd:"" help:"List bikes on the map."`
	Show         showCmd         `cmd:"" help:"Show a bike's details."`
	Reserve      reserveCmd      `cmd:"" help:"Reserve a bike."`
	Cancel       cancelCmd       `cmd:"" help:"Cancel a reservation."`
	Reservations reservationsCmd `cmd:"" help:"List reserved bikes."`
	Clear        clearCmd        `cmd:"" help:"Remove every reservation."`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	kctx := kong.Parse(&cli,
		kong.Name("bikectl"),
		kong.Description("Browse and reserve bikes from the command line."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := o11y.NewLogger(o11y.Options{
		LogLevel:  cli.LogLevel,
		LogFormat: cli.LogFormat,
		LogOutput: os.Stderr,
	})
	slog.SetDefault(logger)

	comps, err := cli.Build(ctx, bike.WithLogger(logger))
	kctx.FatalIfErrorf(err)

	vm := viewmodel.New(comps.Inventory, comps.Ledger,
		viewmodel.WithPublisher(comps.Events),
		viewmodel.WithLogger(logger),
	)

	err = kctx.Run(&env{ctx: ctx, vm: vm, out: os.Stdout}, comps)
	kctx.FatalIfErrorf(errors.Join(err, comps.Close()))
}
