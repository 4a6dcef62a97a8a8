package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/infra/postgres"
	"github.com/dvloznov/finance-dashboard/internal/ingest"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/source"
)

func main() {
	log := logger.New()

	root := &cobra.Command{
		Use:           "ingest",
		Short:         "Finance dashboard ingestion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCSVCmd(log))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newImportCSVCmd(log zerolog.Logger) *cobra.Command {
	var (
		provider string
		account  string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "import-csv",
		Short: "Import CSV transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			// No deadline: a large statement file runs until completion.
			ctx := logger.WithContext(cmd.Context(), log)

			store, err := postgres.Open(config.LoadDatabaseConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			importer := ingest.NewImporter(
				config.NewMappingProvider(config.MappingsDir()),
				source.New(),
				store,
			)

			log.Info().
				Str("provider", provider).
				Str("account", account).
				Str("file", file).
				Msg("starting import")

			if err := importer.ImportCSV(ctx, provider, account, file); err != nil {
				return err
			}

			fmt.Println("Import completed successfully.")
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Source provider name")
	cmd.Flags().StringVar(&account, "account", "", "Account name")
	cmd.Flags().StringVar(&file, "file", "", "Path to CSV file (local path or gs:// URI)")
	for _, flag := range []string{"provider", "account", "file"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	return cmd
}
