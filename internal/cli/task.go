package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для управления tasks.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskCreateCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskUpdateCmd(clientFn, outputFn),
		newTaskDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list FEATURE_ID",
		Short: "List tasks in a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, err := client.ListTasks(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "TAGS", "CREATED"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{t.ID, t.Name, t.Status, strings.Join(t.Tags, ","), t.CreatedAt}
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

func newTaskCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var summary string
	var tags []string

	cmd := &cobra.Command{
		Use:   "create FEATURE_ID NAME",
		Short: "Create a task in a feature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.CreateTask(args[0], CreateTaskRequest{
				Name:    args[1],
				Summary: summary,
				Tags:    tags,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task created: %s", task.ID))
			out.Print(
				[]string{"ID", "FEATURE_ID", "NAME", "STATUS"},
				[][]string{{task.ID, task.FeatureID, task.Name, task.Status}},
				task,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Task summary")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags for flow selection (repeatable)")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.GetTask(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "FEATURE_ID", "NAME", "STATUS", "SUMMARY_LEN", "TAGS"},
				[][]string{{task.ID, task.FeatureID, task.Name, task.Status,
					fmt.Sprintf("%d", len([]rune(task.Summary))), strings.Join(task.Tags, ",")}},
				task,
			)
			return nil
		},
	}
}

func newTaskUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var summary string
	var tags []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update task fields (not status)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			// Незатронутые поля сохраняют текущие значения.
			current, err := client.GetTask(args[0])
			if err != nil {
				return err
			}

			req := UpdateTaskRequest{
				Name:    current.Name,
				Summary: current.Summary,
				Tags:    current.Tags,
			}
			if cmd.Flags().Changed("name") {
				req.Name = name
			}
			if cmd.Flags().Changed("summary") {
				req.Summary = summary
			}
			if cmd.Flags().Changed("tag") {
				req.Tags = tags
			}

			task, err := client.UpdateTask(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task updated: %s", task.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New task name")
	cmd.Flags().StringVar(&summary, "summary", "", "New task summary")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "New tags (replaces existing)")

	return cmd
}

func newTaskDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task and its dependency edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteTask(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task deleted: %s", args[0]))
			return nil
		},
	}
}
