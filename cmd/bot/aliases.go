package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pladderBot/internal/app/runtime"
	"pladderBot/internal/usecase/commands"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Export and import the alias database",
}

var aliasesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every alias as YAML, or as an add-alias script with --script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asScript, _ := cmd.Flags().GetBool("script")

		svc, closeFn, err := aliasService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if asScript {
			out, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}

		list, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		return encodeAliases(cmd.OutOrStdout(), list)
	},
}

var aliasesImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Add the aliases listed in a YAML file, skipping names already in use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		list, err := decodeAliases(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		svc, closeFn, err := aliasService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := svc.Import(cmd.Context(), list)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d, skipped %d\n", len(report.Added), len(report.Skipped))
		for _, name := range report.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", name)
		}
		return nil
	},
}

func init() {
	aliasesExportCmd.Flags().Bool("script", false, "print add-alias lines instead of YAML")
	aliasesCmd.AddCommand(aliasesExportCmd, aliasesImportCmd)
}

func aliasService(cmd *cobra.Command) (*commands.Service, func(), error) {
	rt, err := runtime.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := rt.Aliases()
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}
	return svc, func() { _ = rt.Close() }, nil
}

func encodeAliases(w io.Writer, list []commands.AliasDTO) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return err
	}
	return enc.Close()
}

func decodeAliases(r io.Reader) ([]commands.AliasDTO, error) {
	var list []commands.AliasDTO
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}
