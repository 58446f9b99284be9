package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDepCmd создаёт группу команд для управления зависимостями.
func NewDepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage task dependencies",
	}

	cmd.AddCommand(
		newDepAddCmd(clientFn, outputFn),
		newDepRemoveCmd(clientFn, outputFn),
		newDepListCmd(clientFn, outputFn),
		newDepCheckCmd(clientFn, outputFn),
	)

	return cmd
}

func newDepAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var depType string

	cmd := &cobra.Command{
		Use:   "add FROM_TASK_ID TO_TASK_ID",
		Short: "Add a dependency edge between tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			dep, err := client.CreateDependency(CreateDependencyRequest{
				FromTaskID: args[0],
				ToTaskID:   args[1],
				Type:       depType,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Dependency created: %s", dep.ID))
			out.Print(
				[]string{"ID", "FROM", "TO", "TYPE"},
				[][]string{{dep.ID, dep.FromTaskID, dep.ToTaskID, dep.Type}},
				dep,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&depType, "type", "BLOCKS", "Dependency type (BLOCKS, IS_BLOCKED_BY, RELATES_TO)")

	return cmd
}

func newDepRemoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteDependency(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Dependency removed: %s", args[0]))
			return nil
		},
	}
}

func newDepListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "list TASK_ID",
		Short: "List dependency edges of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			deps, err := client.ListDependencies(args[0], direction)
			if err != nil {
				return err
			}

			headers := []string{"ID", "FROM", "TO", "TYPE", "CREATED"}
			rows := make([][]string, len(deps))
			for i, d := range deps {
				rows[i] = []string{d.ID, d.FromTaskID, d.ToTaskID, d.Type, d.CreatedAt}
			}

			out.Print(headers, rows, deps)
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "all", "Direction filter (incoming, outgoing, all)")

	return cmd
}

func newDepCheckCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "check FROM_TASK_ID TO_TASK_ID",
		Short: "Check whether an edge would create a cycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.CheckCycle(args[0], args[1])
			if err != nil {
				return err
			}

			if result.WouldCreateCycle {
				out.Error("edge would create a cycle")
			} else {
				out.Success("edge is safe, no cycle")
			}
			out.Print(
				[]string{"WOULD_CREATE_CYCLE"},
				[][]string{{fmt.Sprintf("%v", result.WouldCreateCycle)}},
				result,
			)
			return nil
		},
	}
}
