package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobylevd/custom-match-bot/app/event"
	"github.com/bobylevd/custom-match-bot/app/store"
)

// Bot is a command to run discord bot.
type Bot struct {
	CommonOpts
	Token         string        `long:"token"      env:"TOKEN"      description:"Discord bot token" required:"true"`
	AdminIDs      []string      `long:"admin-id"   env:"ADMIN_IDS"  env-delim:"," description:"Admin discords IDs allowed to balance"`
	StoreLocation string        `long:"loc"        env:"LOCATION"   default:"custom-match.db" description:"Store location"`
	RosterTTL     time.Duration `long:"roster-ttl" env:"ROSTER_TTL" default:"48h" description:"channel rosters expire after this long"`
}

// Execute runs the command.
func (b *Bot) Execute([]string) error {
	svc, err := b.service(nil)
	if err != nil {
		return err
	}

	if svc.Store, err = store.New(b.StoreLocation); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer svc.Store.Close()
	svc.RosterTTL = b.RosterTTL

	disc := &event.Discord{
		Token:    b.Token,
		AdminIDs: b.AdminIDs,
		Service:  svc,
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() { // catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop
		log.Printf("[WARN] caught signal: %s", sig)
		cancel(fmt.Errorf("caught signal: %s", sig))
	}()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		log.Printf("[INFO] starting bot %s", b.Version)
		return disc.Run(ctx)
	})
	ewg.Go(func() error {
		<-ctx.Done()
		log.Printf("[INFO] stopping bot")
		return nil
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
