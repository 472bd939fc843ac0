package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents in the configured store",
	}
	cmd.AddCommand(
		newStorePutCmd(a),
		newStoreGetCmd(a),
		newStoreListCmd(a),
		newStoreDeleteCmd(a),
	)
	return cmd
}

func newStorePutCmd(a *app) *cobra.Command {
	var docPath, format string
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Validate a document by replaying it and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := readDocument(docPath, format)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if _, err := p.AddDocument(cmd.Context(), doc); err != nil {
				return err
			}
			s, err := a.store()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			if err := s.Put(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&docPath, "doc", "d", "-", "document file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "", "document format (json, yaml); default from extension")
	return cmd
}

func newStoreGetCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			doc, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd, "", doc, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newStoreListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored document ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			ids, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newStoreDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return s.Delete(cmd.Context(), args[0])
		},
	}
}
