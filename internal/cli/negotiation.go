package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStepCmd создаёт группу команд для ответов перевозчиков.
// Используется для ручного ввода ответа, пришедшего вне портала
// (телефон, email).
func NewStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Record carrier responses to tender steps",
	}

	cmd.AddCommand(
		newStepAcceptCmd(clientFn, outputFn),
		newStepDeclineCmd(clientFn, outputFn),
	)

	return cmd
}

func newStepAcceptCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "accept STEP_ID",
		Short: "Record a carrier acceptance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.RespondToStep(args[0], RespondRequest{
				Response: "accepted",
				Notes:    notes,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Waterfall %s: %s", run.Status, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Response notes")

	return cmd
}

func newStepDeclineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "decline STEP_ID",
		Short: "Record a carrier decline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.RespondToStep(args[0], RespondRequest{
				Response: "declined",
				Notes:    notes,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Waterfall %s: %s", run.Status, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Decline reason")

	return cmd
}

// NewCounterCmd создаёт группу команд negotiation-протокола.
func NewCounterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Manage counter-offers",
	}

	cmd.AddCommand(
		newCounterCreateCmd(clientFn, outputFn),
		newCounterAcceptCmd(clientFn, outputFn),
		newCounterRejectCmd(clientFn, outputFn),
	)

	return cmd
}

func newCounterCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var rate int64
	var notes string

	cmd := &cobra.Command{
		Use:   "create STEP_ID",
		Short: "Record a carrier counter-offer on an in-flight step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			counter, err := client.CreateCounterOffer(CreateCounterOfferRequest{
				StepID:      args[0],
				CounterRate: rate,
				Notes:       notes,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Counter-offer created: %s", counter.ID))
			out.Print(
				[]string{"ID", "STEP_ID", "RATE", "STATUS"},
				[][]string{{counter.ID, counter.StepID, formatCents(counter.CounterRate), counter.Status}},
				counter,
			)
			return nil
		},
	}

	cmd.Flags().Int64Var(&rate, "rate", 0, "Counter rate in cents (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Carrier notes")
	cmd.MarkFlagRequired("rate")

	return cmd
}

func newCounterAcceptCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var counterID string

	cmd := &cobra.Command{
		Use:   "accept WATERFALL_ID",
		Short: "Accept the pending counter-offer of a waterfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.AcceptCounterOffer(args[0], counterID)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Counter-offer accepted, waterfall %s at %s (carrier %s)",
				run.Status, formatCents(run.CurrentRate), run.WinningCarrierID))
			return nil
		},
	}

	cmd.Flags().StringVar(&counterID, "counter-id", "", "Counter-offer ID (pending one if omitted)")

	return cmd
}

func newCounterRejectCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var counterID string

	cmd := &cobra.Command{
		Use:   "reject WATERFALL_ID",
		Short: "Reject the pending counter-offer of a waterfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.RejectCounterOffer(args[0], counterID)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Counter-offer rejected, waterfall %s: %s", run.Status, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&counterID, "counter-id", "", "Counter-offer ID (pending one if omitted)")

	return cmd
}
