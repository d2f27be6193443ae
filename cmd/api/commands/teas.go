package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teamaster/core/internal/adapters/storage"
	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/ports"
)

// Output formats accepted by --output
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// NewAddCommand creates the add command
func NewAddCommand(opts *Options) *cobra.Command {
	var (
		req    ports.AddTeaRequest
		output string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a tea or update its description",
		Long:  "Create a tea, or replace the description of the tea with the same name. Exits non-zero when the tea could not be saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid tea: %w", err)
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.teas.AddTea(cmd.Context(), req)
			if !result.Success {
				return fmt.Errorf("%s: %s", result.ErrorKind, result.Message)
			}

			return writeTea(cmd.OutOrStdout(), output, *result.Tea)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "tea name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "tea description")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// NewGetCommand creates the get command
func NewGetCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show the tea with the exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			tea, err := a.teas.GetTea(cmd.Context(), args[0])
			if errors.Is(err, entities.ErrTeaNotFound) {
				return fmt.Errorf("tea %q not found", args[0])
			}
			if err != nil {
				return err
			}

			return writeTea(cmd.OutOrStdout(), output, *tea)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}

// NewListCommand creates the list command
func NewListCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all teas in stored order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			teas, err := a.teas.ListTeas(cmd.Context())
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), output, teas, teas)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes to the data file until interrupted",
		Long:  "Watch the file backend's data file and print the collection size after every change, including changes made by other processes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Store.Backend != config.BackendFile {
				return fmt.Errorf("watch needs the file backend, not %s", cfg.Store.Backend)
			}

			fs, err := storage.NewFileStorage(cfg.Store.Path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n", fs.Path())
			return fs.Watch(ctx, func(teas []entities.Tea, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
					return
				}
				fmt.Fprintf(out, "%d teas\n", len(teas))
			})
		},
	}
}

func writeTea(w io.Writer, format string, tea entities.Tea) error {
	return writeOutput(w, format, tea, []entities.Tea{tea})
}

func validOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeOutput renders value as json or yaml, or rows as a table
func writeOutput(w io.Writer, format string, value any, rows []entities.Tea) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case outputTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
		for _, tea := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", tea.ID, tea.Name, tea.Description)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
