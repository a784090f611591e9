package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-apidoc/internal/lint"
	"github.com/goliatone/go-apidoc/pkg/annotation"
)

func main() {
	prune := flag.Bool("prune", false, "rewrite files without invalid fragments")
	yes := flag.Bool("yes", false, "skip the confirmation prompt when pruning")
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-prune [-yes]] [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint annotation files for fragments that would be dropped at generation time.\n\n"); err != nil {
			panic(err)
		}
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"annotations.yaml"}
	}

	ctx := context.Background()

	var violations []lint.Violation
	for _, path := range paths {
		report, err := lintFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, report.Violations...)

		if *prune && report.Prunable() {
			if err := pruneFile(path, report, *yes); err != nil {
				fmt.Fprintf(os.Stderr, "prune %s: %v\n", path, err)
				os.Exit(1)
			}
		}
	}

	if len(violations) > 0 {
		lint.Sort(violations)
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
}

func lintFile(ctx context.Context, path string) (lint.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return lint.Report{}, fmt.Errorf("read file: %w", err)
	}
	doc, err := annotation.NewDocument(annotation.SourceFromFile(path), raw)
	if err != nil {
		return lint.Report{}, fmt.Errorf("construct document: %w", err)
	}
	return lint.Lint(ctx, doc)
}

func pruneFile(path string, report lint.Report, yes bool) error {
	if !yes {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Remove invalid fragments from %s?", path),
			Default: false,
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return errors.New("interrupted")
			}
			return err
		}
		if !confirmed {
			return nil
		}
	}

	out, err := lint.Encode(report.Pruned)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}
