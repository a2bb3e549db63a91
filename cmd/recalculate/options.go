package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
)

// options select the scope of one recalculation run
type options struct {
	tenantID   uuid.UUID
	driverID   *uuid.UUID
	actorID    uuid.UUID
	days       int
	allTenants bool
	logLevel   string
}

func parseOptions(args []string, output io.Writer) (options, error) {
	var (
		opts                  options
		tenant, driver, actor string
	)
	fs := flag.NewFlagSet("recalculate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&tenant, "tenant", "", "Tenant to recalculate")
	fs.StringVar(&driver, "driver", "", "Restrict the pass to one driver of -tenant")
	fs.StringVar(&actor, "actor", "", "User recorded in the audit log (default: system)")
	fs.IntVar(&opts.days, "days", 0, "Only drivers with records in the last N days; 0 walks every driver")
	fs.BoolVar(&opts.allTenants, "all", false, "Recalculate every tenant")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.days < 0 {
		return options{}, errors.New("-days must not be negative")
	}
	if actor != "" {
		id, err := uuid.Parse(actor)
		if err != nil {
			return options{}, fmt.Errorf("invalid -actor: %w", err)
		}
		opts.actorID = id
	}

	if opts.allTenants {
		if tenant != "" || driver != "" {
			return options{}, errors.New("-all cannot be combined with -tenant or -driver")
		}
		return opts, nil
	}

	if tenant == "" {
		return options{}, errors.New("either -tenant or -all is required")
	}
	id, err := uuid.Parse(tenant)
	if err != nil {
		return options{}, fmt.Errorf("invalid -tenant: %w", err)
	}
	opts.tenantID = id

	if driver != "" {
		d, err := uuid.Parse(driver)
		if err != nil {
			return options{}, fmt.Errorf("invalid -driver: %w", err)
		}
		opts.driverID = &d
	}
	return opts, nil
}

func (o options) command() appledger.RecalculateCommand {
	return appledger.RecalculateCommand{
		TenantID: o.tenantID,
		ActorID:  o.actorID,
		DriverID: o.driverID,
		Days:     o.days,
	}
}
