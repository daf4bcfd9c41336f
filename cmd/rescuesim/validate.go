package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/rescue-simulator/validate"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate scenario files (default: every file in --config-dir)",
		ArgsUsage: "[file ...]",
		Action:    validateAction,
	}
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	var results []validate.Result
	if cmd.Args().Present() {
		for _, f := range cmd.Args().Slice() {
			results = append(results, validate.File(f))
		}
	} else {
		var err error
		results, err = validate.Dir(cmd.String("config-dir"))
		if err != nil {
			return err
		}
	}

	invalid := 0
	for _, result := range results {
		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(out, "VALID")
			for _, info := range result.Info {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "INVALID")
			invalid++
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  error: "+e)
			}
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(out, "  warning: "+w)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		return fmt.Errorf("%d of %d scenarios are invalid", invalid, len(results))
	}
	fmt.Fprintf(out, "All %d scenarios are valid\n", len(results))
	return nil
}
