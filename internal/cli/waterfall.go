package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWaterfallCmd создаёт группу команд для управления waterfall runs.
func NewWaterfallCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waterfall",
		Short: "Manage tender waterfalls",
	}

	cmd.AddCommand(
		newWaterfallListCmd(clientFn, outputFn),
		newWaterfallStartCmd(clientFn, outputFn),
		newWaterfallShowCmd(clientFn, outputFn),
		newWaterfallCancelCmd(clientFn, outputFn),
		newWaterfallAdvanceCmd(clientFn, outputFn),
		newWaterfallStepsCmd(clientFn, outputFn),
	)

	return cmd
}

func newWaterfallListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var shipmentID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List waterfall runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListWaterfalls(ListWaterfallsOpts{
				ShipmentID: shipmentID,
				Status:     status,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "SHIPMENT", "STATUS", "STEP", "RATE", "WINNER", "STARTED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID,
					r.ShipmentID,
					r.Status,
					fmt.Sprintf("%d/%d", r.CurrentStepIndex, r.TotalCarriers),
					formatCents(r.CurrentRate),
					r.WinningCarrierID,
					r.StartedAt,
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&shipmentID, "shipment-id", "", "Filter by shipment ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, ACCEPTED, EXHAUSTED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newWaterfallStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var carrierIDs []string
	var rate int64
	var timeoutMinutes int
	var rateIncrease float64
	var autoEscalate bool
	var maxCarriers int
	var notes string

	cmd := &cobra.Command{
		Use:   "start SHIPMENT_ID",
		Short: "Start a tender waterfall for a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := StartWaterfallRequest{
				ShipmentID:  args[0],
				CarrierIDs:  carrierIDs,
				OfferedRate: rate,
				Notes:       notes,
			}

			if cmd.Flags().Changed("timeout") {
				req.TimeoutMinutes = &timeoutMinutes
			}
			if cmd.Flags().Changed("rate-increase") {
				req.RateIncreasePerRoundPercent = &rateIncrease
			}
			if cmd.Flags().Changed("auto-escalate") {
				req.AutoEscalate = &autoEscalate
			}
			if cmd.Flags().Changed("max-carriers") {
				req.MaxCarriers = &maxCarriers
			}

			run, err := client.StartWaterfall(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Waterfall started: %s", run.ID))
			out.Print(
				[]string{"ID", "SHIPMENT", "STATUS", "CARRIERS", "RATE"},
				[][]string{{run.ID, run.ShipmentID, run.Status, strconv.Itoa(run.TotalCarriers), formatCents(run.CurrentRate)}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&carrierIDs, "carrier", nil, "Candidate carrier ID in priority order (repeatable; ranked automatically if omitted)")
	cmd.Flags().Int64Var(&rate, "rate", 0, "Offered rate in cents (required)")
	cmd.Flags().IntVar(&timeoutMinutes, "timeout", 0, "Per-step timeout in minutes")
	cmd.Flags().Float64Var(&rateIncrease, "rate-increase", 0, "Rate increase per round, percent")
	cmd.Flags().BoolVar(&autoEscalate, "auto-escalate", true, "Escalate automatically on timeout")
	cmd.Flags().IntVar(&maxCarriers, "max-carriers", 0, "Maximum number of ranked candidates")
	cmd.Flags().StringVar(&notes, "notes", "", "Dispatcher notes")
	cmd.MarkFlagRequired("rate")

	return cmd
}

func newWaterfallShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show waterfall details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetWaterfall(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "SHIPMENT", "STATUS", "STEP", "RATE", "WINNER", "CANCEL_REASON"},
				[][]string{{
					run.ID,
					run.ShipmentID,
					run.Status,
					fmt.Sprintf("%d/%d", run.CurrentStepIndex, run.TotalCarriers),
					formatCents(run.CurrentRate),
					run.WinningCarrierID,
					run.CancelReason,
				}},
				run,
			)
			return nil
		},
	}
}

func newWaterfallCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running waterfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelWaterfall(args[0], reason)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Waterfall %s: %s", run.Status, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	return cmd
}

func newWaterfallAdvanceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "advance ID",
		Short: "Manually advance a paused waterfall to the next carrier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.AdvanceWaterfall(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Waterfall advanced: %s", run.ID))
			if run.CurrentStep != nil {
				out.Print(
					[]string{"STEP", "CARRIER", "RATE", "DEADLINE"},
					[][]string{{
						strconv.Itoa(run.CurrentStep.StepNumber),
						run.CurrentStep.CarrierID,
						formatCents(run.CurrentStep.OfferedRate),
						run.CurrentStep.Deadline,
					}},
					run,
				)
			}
			return nil
		},
	}
}

func newWaterfallStepsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps ID",
		Short: "List tender steps of a waterfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetWaterfall(args[0])
			if err != nil {
				return err
			}

			steps := run.Steps
			if run.CurrentStep != nil {
				steps = append(steps, *run.CurrentStep)
			}

			headers := []string{"STEP", "CARRIER", "RATE", "STATUS", "SENT", "RESOLVED"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{
					strconv.Itoa(s.StepNumber),
					s.CarrierID,
					formatCents(s.OfferedRate),
					s.Status,
					s.SentAt,
					s.ResolvedAt,
				}
			}

			out.Print(headers, rows, steps)
			return nil
		},
	}
}
