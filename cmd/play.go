package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luca-patrignani/rpsx/alert"
	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/engine"
	"github.com/luca-patrignani/rpsx/events"
	"github.com/luca-patrignani/rpsx/ledger"
	"github.com/luca-patrignani/rpsx/secret"
	"github.com/luca-patrignani/rpsx/telemetry"
)

var errQuit = errors.New("quit")

func newPlayCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Connect the configured wallet and play interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd.Context(), *envFile)
		},
	}
}

func runPlay(ctx context.Context, envFile string) error {
	cfg, logger, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateLedger(); err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	client, node, err := ledger.Dial(ctx, cfg.RPCURL, cfg.ContractAddress, cfg.PrivateKey,
		ledger.WithReceiptTimeout(cfg.ReceiptTimeout),
		ledger.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer node.Close()

	store, err := secret.Open(cfg.SecretsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sub := events.New(node, client.Contract(), events.WithLogger(logger))
	defer sub.Close()

	alerts := alert.NewDispatcher(alert.WithTTL(cfg.AlertTTL), alert.WithLogger(logger))
	defer alerts.Close()

	eng := engine.New(client, store, sub, alerts, engine.WithLogger(logger))

	renderBanner()
	spinner, _ := pterm.DefaultSpinner.Start("Connecting wallet " + client.Account().Hex() + " ...")
	if err := eng.Connect(ctx); err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()
	defer eng.Disconnect()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return showAlerts(gctx, alerts.Updates()) })
	g.Go(func() error { return prompt(gctx, eng, logger) })

	err = g.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// showAlerts prints every alert as it is raised.
func showAlerts(ctx context.Context, updates <-chan alert.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			if msg.Status {
				printAlert(msg)
			}
		}
	}
}

// prompt is the interactive loop. Failed actions are already alerted by the
// engine, so they only get logged here.
func prompt(ctx context.Context, eng *engine.Engine, logger *slog.Logger) error {
	screen := engine.ViewLanding
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		screen = latestView(eng.Navigation(), screen)
		ov, err := eng.Overview()
		if err != nil {
			return err
		}
		renderOverview(screen, ov)

		items := menuFor(ov)
		choice, err := pterm.DefaultInteractiveSelect.
			WithDefaultText("What do you want to do?").
			WithOptions(labels(items)).
			Show()
		if err != nil {
			return err
		}
		err = perform(ctx, eng, ov, menuItem(choice))
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			logger.Debug("action failed", "action", choice, "error", err)
		}
	}
}

// latestView drains pending navigation requests and returns the last one.
func latestView(nav <-chan engine.Navigation, current engine.View) engine.View {
	for {
		select {
		case n := <-nav:
			current = n.View
		default:
			return current
		}
	}
}

func perform(ctx context.Context, eng *engine.Engine, ov engine.Overview, item menuItem) error {
	switch item {
	case itemRegister:
		name, err := pterm.DefaultInteractiveTextInput.WithDefaultText("Choose your player name").Show()
		if err != nil {
			return err
		}
		return withSpinner("Registering "+name+" ...", func() error {
			return eng.Register(ctx, name)
		})

	case itemChallenge:
		return challenge(ctx, eng, ov)

	case itemEnter:
		options := gameOptions(ov.Games)
		choice, err := pterm.DefaultInteractiveSelect.WithDefaultText("Select a game").WithOptions(options).Show()
		if err != nil {
			return err
		}
		_, err = eng.Enter(ctx, slices.Index(options, choice))
		return err

	case itemMove:
		if ov.Game == nil {
			return engine.ErrNoGame
		}
		weapon, err := selectWeapon()
		if err != nil {
			return err
		}
		stake := rpsls.FormatStake(ov.Game.Snapshot.Stake)
		if !confirm(fmt.Sprintf("Stake %s ETH and play %s?", stake, weapon)) {
			pterm.Info.Println("Move cancelled.")
			return nil
		}
		return withSpinner("Submitting your move ...", func() error {
			return eng.SubmitMove(ctx, weapon)
		})

	case itemReveal:
		return withSpinner("Revealing your move ...", func() error {
			return eng.Reveal(ctx)
		})

	case itemClaim:
		return withSpinner("Claiming the pot ...", func() error {
			return eng.ClaimTimeout(ctx)
		})

	case itemReload:
		if ov.Game != nil {
			_, err := eng.Enter(ctx, ov.Game.Index)
			return err
		}
		return eng.Refresh(ctx)

	case itemLeave:
		eng.Leave()
		return nil

	case itemQuit:
		return errQuit
	}
	return fmt.Errorf("unknown menu item %q", item)
}

func challenge(ctx context.Context, eng *engine.Engine, ov engine.Overview) error {
	opponents := ov.Opponents()
	options := opponentOptions(opponents)
	choice, err := pterm.DefaultInteractiveSelect.WithDefaultText("Who do you want to challenge?").WithOptions(options).Show()
	if err != nil {
		return err
	}
	i := slices.Index(options, choice)
	if i < 0 {
		return fmt.Errorf("%w: %s", engine.ErrUnknownOpponent, choice)
	}
	opponent := opponents[i]

	weapon, err := selectWeapon()
	if err != nil {
		return err
	}
	stake, err := pterm.DefaultInteractiveTextInput.WithDefaultText("Stake in ETH").WithDefaultValue("0.01").Show()
	if err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Challenge %s with %s, staking %s ETH?", opponent.Name, weapon, stake)) {
		pterm.Info.Println("Challenge cancelled.")
		return nil
	}
	return withSpinner("Creating the game ...", func() error {
		_, err := eng.CreateGame(ctx, opponent.Address, weapon, stake)
		return err
	})
}

func selectWeapon() (rpsls.Weapon, error) {
	var names []string
	for _, w := range rpsls.Weapons() {
		names = append(names, w.String())
	}
	choice, err := pterm.DefaultInteractiveSelect.WithDefaultText("Pick your weapon").WithOptions(names).Show()
	if err != nil {
		return rpsls.NoWeapon, err
	}
	return rpsls.ParseWeapon(choice)
}

func confirm(text string) bool {
	ok, _ := pterm.DefaultInteractiveConfirm.WithDefaultText(text).WithDefaultValue(true).Show()
	return ok
}

func withSpinner(text string, fn func() error) error {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	if err := fn(); err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()
	return nil
}
