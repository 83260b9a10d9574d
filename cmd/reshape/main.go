// Command reshape turns wide source tables into long, annotated tables and
// inspects catalog DAG and snapshot files.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datapress/reshape"
	"github.com/datapress/reshape/catalog"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:          "reshape",
		Short:        "Reshape wide statistical tables into long, keyed tables",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(runCmd(), catalogCmd(), snapshotCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func runCmd() *cobra.Command {
	var (
		indicatorColumn string
		numericColumn   string
		textColumn      string
		dims            []string
		conflict        string
		lookupPath      string
		outDir          string
	)

	cmd := &cobra.Command{
		Use:   "run <source file>",
		Short: "Reshape a CSV, XLSX or zip-of-CSV source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			spec := &reshape.SourceSpec{
				IndicatorColumn: indicatorColumn,
				NumericColumn:   numericColumn,
				TextColumn:      textColumn,
			}
			for _, d := range dims {
				parts := strings.Split(d, ":")
				if len(parts) != 3 {
					return fmt.Errorf("invalid dimension %q, want name:type_column:value_column", d)
				}
				spec.Dimensions = append(spec.Dimensions, reshape.Dimension{
					Name:        parts[0],
					TypeColumn:  parts[1],
					ValueColumn: parts[2],
				})
			}

			rows, err := readSource(args[0])
			if err != nil {
				return err
			}

			r := reshape.NewReshaper(spec,
				reshape.LoggerReshaperOption(logger),
				reshape.ConflictPolicyReshaperOption(reshape.ConflictPolicy(conflict)),
			)

			tables, err := r.Reshape(rows)
			if err != nil {
				return err
			}

			if lookupPath != "" {
				f, err := os.Open(lookupPath)
				if err != nil {
					return err
				}
				lookup, err := reshape.ReadLookupCSV(f)
				f.Close()
				if err != nil {
					return err
				}

				for _, t := range tables {
					if err := lookup.Annotate(t); err != nil {
						return err
					}
				}
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			for _, t := range tables {
				path := filepath.Join(outDir, t.Name+".csv")
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := t.WriteCSV(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}

				logger.Info("wrote table",
					zap.String("path", path),
					zap.String("title", t.Title),
					zap.Int("rows", len(t.Rows)))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&indicatorColumn, "indicator", "IndicatorCode", "measurement identifier column")
	cmd.Flags().StringVar(&numericColumn, "numeric", "NumericValue", "numeric value column")
	cmd.Flags().StringVar(&textColumn, "text", "", "textual value column")
	cmd.Flags().StringArrayVar(&dims, "dim", nil, "dimension as name:type_column:value_column, repeatable")
	cmd.Flags().StringVar(&conflict, "conflict", string(reshape.ConflictAbort), "conflicting value policy: abort or skip")
	cmd.Flags().StringVar(&lookupPath, "lookup", "", "code,title CSV used to annotate tables")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")

	return cmd
}

func readSource(path string) ([]reshape.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		_, rows, err := reshape.ReadZip(path)
		return rows, err

	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		_, rows, err := reshape.ReadXLSX(f)
		return rows, err

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		_, rows, err := reshape.ReadCSV(f)
		return rows, err
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect a catalog DAG file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "order <dag file>",
		Short: "Print steps in dependency order",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0])
			if err != nil {
				return err
			}

			order, err := cat.TopoSort()
			if err != nil {
				return err
			}

			for _, uri := range order {
				fmt.Fprintln(c.OutOrStdout(), uri)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "graph <dag file>",
		Short: "Print dependency edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cat, err := loadCatalog(args[0])
			if err != nil {
				return err
			}

			for _, uri := range cat.URIs() {
				s, _ := cat.Step(uri)
				for _, dep := range s.Dependencies {
					fmt.Fprintf(c.OutOrStdout(), "%s -> %s\n", dep, uri)
				}
			}
			return nil
		},
	})

	return cmd
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return catalog.Load(f)
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with snapshot metadata",
	}

	var uri string
	create := &cobra.Command{
		Use:   "create <data file>",
		Short: "Print a snapshot record skeleton for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			data, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer data.Close()

			sum, size, err := catalog.Sum(data)
			if err != nil {
				return err
			}

			snap := &catalog.Snapshot{
				URI:  uri,
				MD5:  sum,
				Size: size,
				Origin: catalog.Origin{
					DateAccessed: time.Now().Format("2006-01-02"),
				},
			}
			return snap.Encode(c.OutOrStdout())
		},
	}
	create.Flags().StringVar(&uri, "uri", "", "snapshot URI")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <snapshot file> <data file>",
		Short: "Verify a file against its snapshot record",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			meta, err := os.Open(args[0])
			if err != nil {
				return err
			}
			snap, err := catalog.LoadSnapshot(meta)
			meta.Close()
			if err != nil {
				return err
			}

			data, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer data.Close()

			if err := snap.Verify(data); err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "%s: ok\n", snap.URI)
			return nil
		},
	})

	return cmd
}
