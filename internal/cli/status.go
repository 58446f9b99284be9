package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт группу команд для работы со статусами.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage container status transitions",
	}

	cmd.AddCommand(
		newStatusSetCmd(clientFn, outputFn),
		newStatusValidateCmd(clientFn, outputFn),
		newStatusNextCmd(clientFn, outputFn),
		newStatusReachableCmd(clientFn, outputFn),
		newStatusAllowedCmd(clientFn, outputFn),
		newStatusCascadeCmd(clientFn, outputFn),
	)

	return cmd
}

func newStatusSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set TYPE ID STATUS",
		Short: "Apply a status transition (project, feature or task)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.TransitionStatus(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			if result.Advisory != "" {
				out.Success(fmt.Sprintf("Transition applied with advisory: %s", result.Advisory))
			} else {
				out.Success("Transition applied")
			}
			out.Print(
				[]string{"OUTCOME", "ADVISORY"},
				[][]string{{result.Outcome, result.Advisory}},
				result,
			)
			return nil
		},
	}
}

func newStatusValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate TYPE ID STATUS",
		Short: "Dry-run validate a transition without applying it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.ValidateTransition(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"OUTCOME", "REASON", "ADVISORY", "SUGGESTIONS"},
				[][]string{{result.Outcome, result.Reason, result.Advisory, strings.Join(result.Suggestions, ",")}},
				result,
			)
			return nil
		},
	}
}

func newStatusNextCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "next TYPE ID",
		Short: "Compute the next status in the active flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			next, err := client.NextStatus(args[0], args[1], event)
			if err != nil {
				return err
			}

			if !next.Found {
				out.Success(fmt.Sprintf("No further transitions in flow %q", next.Flow))
			}
			out.Print(
				[]string{"FLOW", "TARGET", "FOUND", "AUTOMATIC", "REQUIRES"},
				[][]string{{next.Flow, next.Target, fmt.Sprintf("%v", next.Found),
					fmt.Sprintf("%v", next.Automatic), strings.Join(next.Requires, ",")}},
				next,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "Transition event label")

	return cmd
}

func newStatusReachableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reachable TYPE ID",
		Short: "List statuses reachable from the current one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			reachable, err := client.ReachableStatuses(args[0], args[1])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"CURRENT", "REACHABLE"},
				[][]string{{reachable.Current, strings.Join(reachable.Reachable, ",")}},
				reachable,
			)
			return nil
		},
	}
}

func newStatusAllowedCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "allowed TYPE",
		Short: "List all status literals allowed for a container type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			allowed, err := client.AllowedStatuses(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"TYPE", "STATUSES"},
				[][]string{{allowed.ContainerType, strings.Join(allowed.Statuses, ",")}},
				allowed,
			)
			return nil
		},
	}
}

func newStatusCascadeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cascade TYPE ID",
		Short: "Detect cascade suggestions for the parent of a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			events, err := client.DetectCascade(args[0], args[1])
			if err != nil {
				return err
			}

			if len(events) == 0 {
				out.Success("No cascade suggestions")
				return nil
			}

			headers := []string{"EVENT", "TARGET_TYPE", "TARGET_ID", "CURRENT", "SUGGESTED", "AUTO"}
			rows := make([][]string, len(events))
			for i, ev := range events {
				rows[i] = []string{ev.Event, ev.TargetType, ev.TargetID,
					ev.CurrentStatus, ev.SuggestedStatus, fmt.Sprintf("%v", ev.Automatic)}
			}

			out.Print(headers, rows, events)
			return nil
		},
	}
}
