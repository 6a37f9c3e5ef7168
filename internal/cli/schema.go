package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/schema"
)

func RunSchemaShow(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(nav.PathArg(args, 0))
	if err != nil {
		return err
	}
	s, err := loadSchema(cmd, root)
	if err != nil {
		return err
	}
	data, err := s.EncodeYAML()
	if err != nil {
		return fmt.Errorf("failed to render attribute table: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func RunSchemaClassify(cmd *cobra.Command, args []string) error {
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	tag, err := OptionalStringFlag(cmd, "tag")
	if err != nil {
		return err
	}
	root, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	s, err := loadSchema(cmd, root)
	if err != nil {
		return err
	}

	attr, value := args[0], args[1]
	rule, known := s.Rule(attr)
	if !known {
		rule = schema.Rule{Kind: schema.Heuristic}
	}
	match, isRef := s.Classify(attr, tag, value)
	definition := attr == "id" && s.IsDefinition(tag)

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"attribute":  attr,
			"tag":        tag,
			"value":      value,
			"rule":       rule.Kind.String(),
			"prefix":     rule.Prefix,
			"in_table":   known,
			"definition": definition,
			"reference":  isRef,
			"match":      match,
		})
	}

	fmt.Printf("%s=%q", attr, value)
	if tag != "" {
		fmt.Printf(" on <%s>", tag)
	}
	fmt.Printf(": rule=%s", rule.Kind)
	if rule.Prefix != "" {
		fmt.Printf(" prefix=%s", rule.Prefix)
	}
	fmt.Println()
	switch {
	case definition:
		fmt.Println("definition")
	case isRef:
		fmt.Printf("reference base=%s prefix=%q\n", match.BaseID, match.Prefix)
	default:
		fmt.Println("not a reference")
	}
	return nil
}

func loadSchema(cmd *cobra.Command, root string) (*schema.Schema, error) {
	configPath, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s, err := cfg.LoadSchema(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return s, nil
}
