package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewProjectCmd создаёт группу команд для управления projects и features.
func NewProjectCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and features",
	}

	cmd.AddCommand(
		newProjectListCmd(clientFn, outputFn),
		newProjectCreateCmd(clientFn, outputFn),
		newProjectShowCmd(clientFn, outputFn),
		newProjectFeaturesCmd(clientFn, outputFn),
		newFeatureCreateCmd(clientFn, outputFn),
	)

	return cmd
}

func newProjectListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			projects, err := client.ListProjects(limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "TAGS", "CREATED"}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.ID, p.Name, p.Status, strings.Join(p.Tags, ","), p.CreatedAt}
			}

			out.Print(headers, rows, projects)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newProjectCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.CreateProject(args[0], tags)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Project created: %s", project.ID))
			out.Print(
				[]string{"ID", "NAME", "STATUS", "TAGS"},
				[][]string{{project.ID, project.Name, project.Status, strings.Join(project.Tags, ",")}},
				project,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags for flow selection (repeatable)")

	return cmd
}

func newProjectShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.GetProject(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "STATUS", "TAGS", "CREATED", "UPDATED"},
				[][]string{{project.ID, project.Name, project.Status, strings.Join(project.Tags, ","), project.CreatedAt, project.UpdatedAt}},
				project,
			)
			return nil
		},
	}
}

func newProjectFeaturesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "features PROJECT_ID",
		Short: "List features in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			features, err := client.ListFeatures(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "TAGS", "CREATED"}
			rows := make([][]string, len(features))
			for i, f := range features {
				rows[i] = []string{f.ID, f.Name, f.Status, strings.Join(f.Tags, ","), f.CreatedAt}
			}

			out.Print(headers, rows, features)
			return nil
		},
	}
}

func newFeatureCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "add-feature PROJECT_ID NAME",
		Short: "Create a feature in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			feature, err := client.CreateFeature(args[0], args[1], tags)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Feature created: %s", feature.ID))
			out.Print(
				[]string{"ID", "PROJECT_ID", "NAME", "STATUS"},
				[][]string{{feature.ID, feature.ProjectID, feature.Name, feature.Status}},
				feature,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags for flow selection (repeatable)")

	return cmd
}
