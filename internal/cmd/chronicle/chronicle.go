// Package chronicle parses CLI flags and runs journal subcommands.
package chronicle

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/customer"
	"github.com/louisbranch/chronicle/internal/engine"
	"github.com/louisbranch/chronicle/internal/platform/config"
	"github.com/louisbranch/chronicle/internal/platform/id"
	"github.com/louisbranch/chronicle/internal/platform/logger"
	"github.com/louisbranch/chronicle/internal/platform/otel"
	"github.com/louisbranch/chronicle/internal/query"
	"github.com/louisbranch/chronicle/internal/registry"
	"github.com/louisbranch/chronicle/internal/runtime"
	"github.com/louisbranch/chronicle/internal/store/sqlite"
)

// Config holds CLI configuration.
type Config struct {
	config.Settings
}

// ParseConfig parses environment and flags into a Config. The returned
// strings are the remaining positional arguments.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg.Settings); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the event journal database")
	fs.StringVar(&cfg.LogMode, "log", cfg.LogMode, "logger mode (dev or prod)")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Run executes one journal subcommand against the configured database.
func Run(ctx context.Context, cfg Config, command string, out io.Writer) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdown, err := otel.Setup(ctx, "chronicle", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	journal, err := sqlite.Open(cfg.DBPath, customer.New, customer.Events())
	if err != nil {
		return err
	}
	defer journal.Close()

	switch command {
	case "list":
		return runList(ctx, journal, out)
	case "verify":
		return runVerify(ctx, journal, out)
	case "demo":
		return runDemo(ctx, journal, log, out)
	default:
		return fmt.Errorf("unknown command %q (expected list, verify or demo)", command)
	}
}

func runList(ctx context.Context, journal *sqlite.Store[*customer.Customer], out io.Writer) error {
	ids, err := journal.AggregateIDs(ctx)
	if err != nil {
		return err
	}
	for _, aggregateID := range ids {
		history, err := journal.Load(ctx, aggregateID)
		if err != nil {
			return err
		}
		for _, env := range history {
			fmt.Fprintf(out, "%s\t%d\t%s\t%s\n",
				env.AggregateID, env.Seq, env.Event.EventType(),
				env.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
		}
	}
	return nil
}

func runVerify(ctx context.Context, journal *sqlite.Store[*customer.Customer], out io.Writer) error {
	if err := journal.Verify(ctx); err != nil {
		return err
	}
	ids, err := journal.AggregateIDs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "journal ok (%d aggregates)\n", len(ids))
	return nil
}

// runDemo creates a customer aggregate and routes two commands through the
// identity registry, exercising the full load-handle-commit-dispatch path.
func runDemo(ctx context.Context, journal *sqlite.Store[*customer.Customer], log *logger.Logger, out io.Writer) error {
	framework := engine.New(journal, []query.Processor{&query.Logging{Log: log}})

	aggregateID, err := id.NewID()
	if err != nil {
		return err
	}

	var inst *runtime.Instance[*customer.Customer]
	instances := registry.New()
	handle, err := instances.GetOrCreate(aggregateID, customer.AggregateType, func(id string) runtime.Handle {
		inst = runtime.Start(id, framework)
		return inst
	})
	if err != nil {
		return err
	}
	defer func() {
		inst.Stop()
		<-inst.Drained()
	}()

	commands := []struct {
		cmd  aggregate.Command
		what string
	}{
		{customer.AddCustomerName{Name: "Ada Lovelace"}, "add name"},
		{customer.UpdateEmail{Email: "ada@example.com"}, "update email"},
	}
	for _, c := range commands {
		result := make(chan error, 1)
		if err := handle.Deliver(runtime.Message{
			Command:  c.cmd,
			Metadata: map[string]string{"source": "demo"},
			Result:   result,
		}); err != nil {
			return err
		}
		select {
		case err := <-result:
			if err != nil {
				return fmt.Errorf("%s: %w", c.what, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fmt.Fprintf(out, "created customer %s\n", aggregateID)
	return nil
}
