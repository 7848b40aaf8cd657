package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quellabs/objectquel"
	"github.com/quellabs/objectquel/adapter/postgres"
	"github.com/quellabs/objectquel/config"
	"github.com/quellabs/objectquel/internal/obslog"
	"github.com/quellabs/objectquel/internal/obsmetrics"
	"github.com/quellabs/objectquel/internal/obstrace"
	"github.com/quellabs/objectquel/internal/reqid"
	"github.com/quellabs/objectquel/metadatastore/yamlstore"
	"github.com/quellabs/objectquel/objerr"
)

type compileFlags struct {
	entitiesPath string
	paramsJSON   string
	verbose      bool
}

func newCompileCmd() *cobra.Command {
	cf := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile <file.oql>",
		Short: "Compile an ObjectQuel query to SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], cf)
		},
	}

	cmd.Flags().StringVar(&cf.entitiesPath, "entities", "", "path to the YAML entity metadata document (required)")
	cmd.Flags().StringVar(&cf.paramsJSON, "params", "{}", "JSON object of bound query parameters")
	cmd.Flags().BoolVarP(&cf.verbose, "verbose", "v", false, "print a human-readable explanation alongside the SQL")
	_ = cmd.MarkFlagRequired("entities")

	config.RegisterFlags(cmd.Flags(), config.Default())

	return cmd
}

func runCompile(cmd *cobra.Command, path string, cf *compileFlags) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	obslog.SetDefault("objectquelc", version, "text")
	logger := obslog.Setup("objectquelc", version, "text", os.Stderr)

	id, ctx := reqid.FromContext(cmd.Context())
	logger = logger.With("request_id", id.String())

	source, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("READ_SOURCE_FAILED").With("path", path).Wrap(err)
	}

	store, err := yamlstore.Load(cf.entitiesPath)
	if err != nil {
		return oops.Code("LOAD_ENTITIES_FAILED").With("path", cf.entitiesPath).Wrap(err)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(cf.paramsJSON), &params); err != nil {
		return oops.Code("PARSE_PARAMS_FAILED").Wrap(err)
	}

	var exec objectquel.QueryExecutor
	if cfg.DatabaseURL != "" {
		adapter, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").Wrap(err)
		}
		defer adapter.Close()
		exec = adapter
	}

	ctx, span := obstrace.StartCompile(ctx, string(source))
	start := time.Now()

	cq, err := objectquel.Compile(ctx, string(source), params, store, exec, objectquel.WithLogger(logger))

	obstrace.End(span, err)
	obsmetrics.RecordCompile(time.Since(start), objerr.Code(err))

	if err != nil {
		return err
	}

	switch cfg.OutputFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(cq); err != nil {
			return oops.Code("ENCODE_RESULT_FAILED").Wrap(err)
		}
	default:
		cmd.Println(cq.SQL)
	}

	if cf.verbose {
		cmd.Println(cq.Explain())
	}
	return nil
}

func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}
