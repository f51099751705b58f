// Package poller drives the bot: one cron job that sweeps expired pins and
// then fetches new messages from every monitored channel.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"pinbot/internal/gateway"
	"pinbot/internal/providers"
	"pinbot/internal/services"
	"pinbot/internal/structures"
)

type PollerInterface interface {
	// Restore resolves the operating account and channel list before the
	// first cycle. It must succeed for the bot to start.
	Restore() error
	Init()
	Stop()
	RunCycle(ctx context.Context)
}

type Poller struct {
	config    *structures.Config
	logger    providers.Logger
	manager   services.PinManagerInterface
	messenger gateway.MessagingClientInterface
	cron      *gron.Cron
	opsMu     sync.Mutex
	channels  []string
}

func NewPoller(
	config *structures.Config,
	logger providers.Logger,
	manager services.PinManagerInterface,
	messenger gateway.MessagingClientInterface,
) PollerInterface {
	return &Poller{
		config:    config,
		logger:    logger,
		manager:   manager,
		messenger: messenger,
	}
}

func (p *Poller) Restore() error {
	if len(p.config.Signal.Channels) > 0 {
		p.channels = p.config.Signal.Channels
		p.logger.Infof(providers.TypeApp, "Monitoring %d configured channels", len(p.channels))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accounts, err := p.messenger.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("discovering account: %w", err)
	}
	if len(accounts) == 0 {
		return errors.New("no accounts registered on the messaging gateway")
	}

	p.messenger.SetNumber(accounts[0])
	p.channels = []string{accounts[0]}
	p.logger.Infof(providers.TypeApp, "Operating as %s", accounts[0])
	return nil
}

func (p *Poller) Init() {
	p.cron = gron.New()
	p.cron.AddFunc(gron.Every(p.config.Poller.Interval), func() {
		p.opsMu.Lock()
		defer p.opsMu.Unlock()
		p.RunCycle(context.Background())
	})
	p.cron.Start()
	p.logger.Infof(providers.TypeApp, "Poll loop started, interval %s", p.config.Poller.Interval)
}

func (p *Poller) Stop() {
	if p.cron != nil {
		p.cron.Stop()
	}
}

// RunCycle is one poll iteration: sweep first, then each channel in turn.
// A failing channel is logged and skipped; it never costs the others their
// turn.
func (p *Poller) RunCycle(ctx context.Context) {
	p.manager.SweepExpired(ctx, time.Now())

	for _, channel := range p.channels {
		items, err := p.messenger.Receive(ctx, channel)
		if err != nil {
			p.logger.Errorf(providers.TypePoll, "Fetching messages for %s: %s", channel, err)
			continue
		}
		if len(items) > 0 {
			p.logger.Infof(providers.TypePoll, "Received %d messages from %s", len(items), channel)
		}
		for i := range items {
			p.manager.HandleEnvelope(ctx, &items[i].Envelope)
		}
	}
}
