package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/rpsx/secret"
)

func newSecretsCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "secrets",
		Short: "List the commitments stored on this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			store, err := secret.Open(cfg.SecretsPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				pterm.Info.Printfln("No secrets stored in %s", cfg.SecretsPath)
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(secretsTable(records)).Render()
		},
	}
}

func secretsTable(records []secret.Record) pterm.TableData {
	data := pterm.TableData{{"Game", "Weapon"}}
	for _, r := range records {
		game := r.GameName
		if r.Pending() {
			game = r.Proposed + " " + pterm.LightYellow("(pending confirmation)")
		}
		data = append(data, []string{game, r.Weapon.String()})
	}
	return data
}
