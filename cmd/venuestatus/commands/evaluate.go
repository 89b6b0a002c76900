package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/persistence"
	"git.home.luguber.info/inful/venuestatus/internal/schedule"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// EvaluateCmd implements the 'evaluate' command.
type EvaluateCmd struct {
	File string `arg:"" optional:"" help:"Seed file to evaluate instead of the database" type:"existingfile"`
	At   string `help:"Instant to evaluate (RFC 3339); defaults to now"`
}

func (e *EvaluateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	at := time.Now()
	if e.At != "" {
		at, err = time.Parse(time.RFC3339, e.At)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	var venues []venue.Venue
	if e.File != "" {
		f, err := readSeedFile(e.File)
		if err != nil {
			return err
		}
		machine := newMachine(cfg)
		for _, sv := range f.Venues {
			v, err := sv.build(machine, at)
			if err != nil {
				return err
			}
			venues = append(venues, v)
		}
	} else {
		store, err := persistence.NewSQLiteStore(cfg.Storage.Database)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if venues, err = store.LoadAll(context.Background()); err != nil {
			return err
		}
	}
	return evaluate(os.Stdout, cfg, venues, at)
}

// evaluate prints each venue's stored status next to the status its
// schedule yields at the instant.
func evaluate(w io.Writer, cfg *config.Config, venues []venue.Venue, at time.Time) error {
	evaluator := schedule.NewEvaluator(cfg.Engine.OpeningSoonWindow.D(), cfg.Engine.ClosingSoonWindow.D())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VENUE\tMODE\tSTATUS\tSCHEDULE\tAUTO-TRANSITION")
	for _, v := range venues {
		auto := "-"
		if m, ok := v.Mode.(venue.Manual); ok && m.Pending != nil {
			auto = fmt.Sprintf("%s at %s", m.Pending.Target, m.Pending.FireAt.Format(time.RFC3339))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Mode.Kind(), v.Status(), evaluator.Evaluate(v.Schedule, at), auto)
	}
	return tw.Flush()
}
