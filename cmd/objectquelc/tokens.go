package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quellabs/objectquel/lexer"
	"github.com/quellabs/objectquel/token"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file.oql>",
		Short: "Print the token stream for an ObjectQuel query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0])
		},
	}
}

func runTokens(cmd *cobra.Command, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("READ_SOURCE_FAILED").With("path", path).Wrap(err)
	}

	tokens, err := lexer.Tokenize(cmd.Context(), string(source))
	if err != nil {
		return err
	}

	return token.Dump(cmd.OutOrStdout(), tokens)
}
