package bot

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"flip/internal/app"
	"flip/internal/config"
	"flip/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Table is the part of a session a bot needs.
type Table interface {
	ID() string
	Variant() domain.Variant
	Players() []domain.PlayerSpec
	Subscribe(viewer string) (*app.Subscription, error)
	SubmitEnvelope(ctx context.Context, actor string, env domain.Envelope) (app.Result, error)
}

var _ Table = (*app.Session)(nil)

// Options configure the bots of one session.
type Options struct {
	Level    Level
	Script   string
	MinDelay time.Duration
	MaxDelay time.Duration
}

// OptionsFromConfig reads the script file named by cfg when needed.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{Level: ParseLevel(cfg.Bots.Level)}
	opts.MinDelay, opts.MaxDelay = cfg.BotDelay()
	if opts.Level == LevelScript {
		src, err := os.ReadFile(cfg.Bots.LuaScript)
		if err != nil {
			return Options{}, fmt.Errorf("failed to read bot script: %w", err)
		}
		opts.Script = string(src)
	}
	return opts, nil
}

// Driver plays one bot seat: it watches the seat's updates and submits the
// agent's commands like any other client.
type Driver struct {
	agent    *Agent
	table    Table
	logger   runtime.Logger
	minDelay time.Duration
	maxDelay time.Duration
}

func NewDriver(table Table, agent *Agent, opts Options, logger runtime.Logger) *Driver {
	return &Driver{
		agent:    agent,
		table:    table,
		logger:   logger,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
	}
}

// Attach starts a driver for every bot seat of table. Drivers stop when ctx
// is cancelled, the game ends or the session closes.
func Attach(ctx context.Context, table Table, opts Options, logger runtime.Logger) (int, error) {
	var drivers []*Driver
	for _, p := range table.Players() {
		if !p.Bot {
			continue
		}
		agent, err := NewAgent(p.ID, table.Variant(), opts.Level, opts.Script)
		if err != nil {
			for _, d := range drivers {
				d.agent.Close()
			}
			return 0, fmt.Errorf("failed to create bot %s: %w", p.ID, err)
		}
		drivers = append(drivers, NewDriver(table, agent, opts, logger))
	}
	for _, d := range drivers {
		go func(d *Driver) {
			if err := d.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Attach: bot %s in session %s stopped: %v", d.agent.ID, table.ID(), err)
			}
		}(d)
	}
	return len(drivers), nil
}

// Run plays until ctx ends, the subscription closes or the game is over.
// The agent is closed when Run returns.
func (d *Driver) Run(ctx context.Context) error {
	defer d.agent.Close()
	sub, err := d.table.Subscribe(d.agent.ID)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		var u app.Update
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			u = next
		}
		if u.View.Phase == domain.PhaseTerminal {
			return nil
		}

		env, ok, err := d.agent.Play(u.View)
		if err != nil {
			d.logger.Error("Run: bot %s could not decide at seq %d: %v", d.agent.ID, u.Seq, err)
			continue
		}
		if !ok {
			continue
		}
		if err := d.pause(ctx); err != nil {
			return err
		}
		// Others may have moved while the bot was thinking.
		if latest := drain(sub, u); latest.Seq != u.Seq {
			if latest.View.Phase == domain.PhaseTerminal {
				return nil
			}
			env, ok, err = d.agent.Play(latest.View)
			if err != nil || !ok {
				continue
			}
		}
		d.submit(ctx, env)
	}
}

func (d *Driver) submit(ctx context.Context, env domain.Envelope) {
	res, err := d.table.SubmitEnvelope(ctx, d.agent.ID, env)
	if err != nil {
		d.logger.Error("submit: bot %s failed to send %s: %v", d.agent.ID, env.Type, err)
		return
	}
	if res.Applied {
		return
	}
	d.logger.Warn("submit: bot %s had %s rejected: %v", d.agent.ID, env.Type, res.Errors)

	backup, ok, err := d.agent.Fallback(res.View)
	if err != nil || !ok {
		return
	}
	res, err = d.table.SubmitEnvelope(ctx, d.agent.ID, backup)
	if err != nil {
		d.logger.Error("submit: bot %s failed to send fallback %s: %v", d.agent.ID, backup.Type, err)
		return
	}
	if !res.Applied {
		d.logger.Error("submit: bot %s is stuck, fallback %s rejected: %v", d.agent.ID, backup.Type, res.Errors)
	}
}

func (d *Driver) pause(ctx context.Context) error {
	delay := d.minDelay
	if span := d.maxDelay - d.minDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// drain returns the newest queued update without blocking.
func drain(sub *app.Subscription, u app.Update) app.Update {
	for {
		select {
		case next, ok := <-sub.Updates():
			if !ok {
				return u
			}
			u = next
		default:
			return u
		}
	}
}
