package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/history"
	"github.com/morozRed/xmlref/internal/nav"
)

func RunHistory(cmd *cobra.Command, args []string) error {
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	asJSONL, err := nav.OptionalBoolFlag(cmd, "jsonl", false)
	if err != nil {
		return err
	}
	limit, err := nav.OptionalIntFlag(cmd, "limit", 20)
	if err != nil {
		return err
	}
	configPath, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	cfg, err := config.Load(rootPath, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath := cfg.HistoryPath(rootPath)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("no renames recorded")
		return nil
	}
	journal, err := history.Open(dbPath, nil)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer journal.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 1 {
		run, err := journal.Get(ctx, args[0])
		if err != nil {
			return err
		}
		switch {
		case asJSONL:
			return printJSONL(run.Entries)
		case asJSON:
			return fileutil.PrintJSON(run)
		}
		fmt.Printf("run %s: %s -> %s at %s\n", run.ID, run.Old, run.New, run.CreatedAt.Local().Format(time.RFC3339))
		for _, entry := range run.Entries {
			fmt.Println(entry.Line)
		}
		return nil
	}

	runs, err := journal.List(ctx, limit)
	if err != nil {
		return err
	}
	switch {
	case asJSONL:
		return printJSONL(runs)
	case asJSON:
		return fileutil.PrintJSON(map[string]any{"runs": runs})
	}
	if len(runs) == 0 {
		fmt.Println("no renames recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %s -> %s  (%d documents)\n",
			shortID(run.ID), run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Old, run.New, len(run.Documents))
	}
	return nil
}

func printJSONL[T any](records []T) error {
	data, err := fileutil.EncodeJSONL(records)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
