package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/internal/services"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	format  string
	from    string
	to      string
	staffID int64
	eventID int64
}

// NewExportEntriesCommand creates the export-entries command.
func NewExportEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export-entries",
		Short: "Export completed time entries",
		Long: `Export completed time entries with their stored totals.

--from and --to filter on clock-in and accept RFC3339 timestamps or
YYYY-MM-DD dates (UTC midnight); --to is exclusive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			if opts.format != "csv" && opts.format != "json" {
				return fmt.Errorf("invalid format %q: must be csv or json", opts.format)
			}

			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			export, err := services.NewReportService(db, repositories.NewTimeclockRepository(db)).ExportEntries(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if opts.format == "csv" {
				return services.WriteEntriesCSV(cmd.OutOrStdout(), export)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(export)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "output format (csv|json)")
	cmd.Flags().StringVar(&opts.from, "from", "", "earliest clock-in, inclusive")
	cmd.Flags().StringVar(&opts.to, "to", "", "latest clock-in, exclusive")
	cmd.Flags().Int64Var(&opts.staffID, "staff-id", 0, "only this staff member")
	cmd.Flags().Int64Var(&opts.eventID, "event-id", 0, "only this event")

	return cmd
}

func (o *exportOptions) filter() (models.EntryFilter, error) {
	var f models.EntryFilter
	if o.staffID > 0 {
		f.StaffID = &o.staffID
	}
	if o.eventID > 0 {
		f.EventID = &o.eventID
	}
	var err error
	if f.From, err = parseBound(o.from); err != nil {
		return f, fmt.Errorf("--from: %w", err)
	}
	if f.To, err = parseBound(o.to); err != nil {
		return f, fmt.Errorf("--to: %w", err)
	}
	return f, nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}
