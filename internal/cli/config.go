package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewConfigCmd создаёт группу команд для процессных дефолтов.
func NewConfigCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage process-wide waterfall defaults",
	}

	cmd.AddCommand(
		newConfigShowCmd(clientFn, outputFn),
		newConfigSetCmd(clientFn, outputFn),
	)

	return cmd
}

func configRow(cfg *ConfigResponse) ([]string, [][]string) {
	headers := []string{"TIMEOUT_MIN", "RATE_INCREASE_%", "AUTO_ESCALATE", "MAX_CARRIERS"}
	rows := [][]string{{
		strconv.Itoa(cfg.TimeoutMinutes),
		fmt.Sprintf("%.1f", cfg.RateIncreasePerRoundPercent),
		strconv.FormatBool(cfg.AutoEscalate),
		strconv.Itoa(cfg.MaxCarriers),
	}}
	return headers, rows
}

func newConfigShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			cfg, err := client.GetConfig()
			if err != nil {
				return err
			}

			headers, rows := configRow(cfg)
			out.Print(headers, rows, cfg)
			return nil
		},
	}
}

func newConfigSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var timeoutMinutes int
	var rateIncrease float64
	var autoEscalate bool
	var maxCarriers int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update defaults (takes effect for new waterfalls)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			// Стартуем от текущих значений: set меняет только
			// переданные флаги.
			current, err := client.GetConfig()
			if err != nil {
				return err
			}

			cfg := *current
			if cmd.Flags().Changed("timeout") {
				cfg.TimeoutMinutes = timeoutMinutes
			}
			if cmd.Flags().Changed("rate-increase") {
				cfg.RateIncreasePerRoundPercent = rateIncrease
			}
			if cmd.Flags().Changed("auto-escalate") {
				cfg.AutoEscalate = autoEscalate
			}
			if cmd.Flags().Changed("max-carriers") {
				cfg.MaxCarriers = maxCarriers
			}

			updated, err := client.UpdateConfig(cfg)
			if err != nil {
				return err
			}

			out.Success("Defaults updated")
			headers, rows := configRow(updated)
			out.Print(headers, rows, updated)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutMinutes, "timeout", 0, "Per-step timeout in minutes")
	cmd.Flags().Float64Var(&rateIncrease, "rate-increase", 0, "Rate increase per round, percent")
	cmd.Flags().BoolVar(&autoEscalate, "auto-escalate", true, "Escalate automatically on timeout")
	cmd.Flags().IntVar(&maxCarriers, "max-carriers", 0, "Maximum number of ranked candidates")

	return cmd
}
