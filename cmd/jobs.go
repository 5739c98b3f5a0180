package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

var (
	jobsStatus string
	jobsDomain string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List enrichment jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Status: model.JobStatus(jobsStatus),
			Domain: jobsDomain,
			Limit:  jobsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list jobs")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status: pending, in_progress, completed, failed")
	jobsCmd.Flags().StringVar(&jobsDomain, "domain", "", "filter by normalized domain")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "maximum jobs to list")
	rootCmd.AddCommand(jobsCmd)
}
