// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/pkg/validation"
	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
	"github.com/AleutianAI/TheoremMap/services/derivation/invoke"
)

func newSplitCmd(c *cli) *cobra.Command {
	var delimiter string

	cmd := &cobra.Command{
		Use:   "split EXPRESSION",
		Short: "Split an expression into its top-level terms",
		Long: `Splits EXPRESSION on the delimiter wherever it occurs outside
parentheses, printing one term per line.`,
		Example: `  theoremmap split "p → (q → r) → s"
  theoremmap split -d "∧" "p ∧ (q ∧ r)"`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := validation.ValidateExpression(args[0]); err != nil {
				return withExitCode(ExitBadArgs, err)
			}

			obj, ok := invoke.NewRegistry().Lookup(invoke.SplitTermsName)
			if !ok {
				return fmt.Errorf("%s is not registered", invoke.SplitTermsName)
			}
			out, err := obj.Call(cmd.Context(), invoke.String(args[0]), invoke.String(delimiter))
			if err != nil {
				if errors.Is(err, expr.ErrMalformedExpression) || errors.Is(err, expr.ErrEmptyDelimiter) {
					return withExitCode(ExitBadArgs, err)
				}
				return err
			}
			terms, _ := out.Data.([]string)

			switch {
			case c.output.Quiet:
				return nil
			case c.output.JSON:
				return writeResult(c.stdout, c.output, "split", start, map[string][]string{"terms": terms})
			}
			fmt.Fprintln(c.stdout, strings.Join(terms, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", expr.Arrow, "Top-level delimiter to split on")
	return cmd
}
