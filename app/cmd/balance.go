package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/bobylevd/custom-match-bot/app/report"
	"github.com/bobylevd/custom-match-bot/app/store"
)

// Balance is a command to split ten Riot IDs into two even teams.
type Balance struct {
	CommonOpts
	File string `long:"file" short:"f" description:"file with ten Riot IDs, one per line, stdin if not set"`

	svc *store.Service // overridden in tests
}

// Execute runs the command.
func (b *Balance) Execute([]string) error {
	svc := b.svc
	if svc == nil {
		var err error
		if svc, err = b.service(nil); err != nil {
			return err
		}
	}

	in, err := b.input(b.File)
	if err != nil {
		return err
	}
	defer in.Close()

	names, err := readLines(in)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m, err := svc.Balance(ctx, names)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	_, err = io.WriteString(b.output(), report.Match(m))
	return err
}
