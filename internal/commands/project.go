package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
)

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectAddCommand(a), newProjectListCommand(a))
	return cmd
}

func newProjectAddCommand(a *app) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)

			project, err := st.CreateProject(cmd.Context(), model.Project{Name: args[0], Notes: notes})
			if err != nil {
				return err
			}
			fmt.Printf("Created project %s (%s)\n", project.Name, id.Short(project.ID))
			a.record(st, "project: add "+project.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newProjectListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)

			projects, err := st.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tNAME\tNOTES\n")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", id.Short(p.ID), p.Name, p.Notes)
			}
			return w.Flush()
		},
	}
}
