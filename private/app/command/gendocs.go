// Copyright 2023 Anapaya Systems

package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// headings lifts the headings generated by cobra by one level so that the
// command name becomes the page title.
var headings = []struct {
	Search  *regexp.Regexp
	Replace string
}{
	{Search: regexp.MustCompile("(?m)^## "), Replace: "# "},
	{Search: regexp.MustCompile("(?m)^### "), Replace: "## "},
	{Search: regexp.MustCompile("(?m)^#### "), Replace: "### "},
}

// NewGendocs creates a hidden command that writes one markdown page per
// command of the tree into a directory.
func NewGendocs(pather Pather) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "gendocs <directory>",
		Short:   "Generate documentation",
		Example: fmt.Sprintf("  %s gendocs doc/command", pather.CommandPath()),
		Args:    cobra.ExactArgs(1),
		Hidden:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Root().DisableAutoGenTag = true

			directory := args[0]
			if err := os.MkdirAll(directory, 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			if err := genMarkdownTree(cmd.Root(), directory); err != nil {
				return fmt.Errorf("generating documentation: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func pageName(cmd *cobra.Command) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", "_") + ".md"
}

func genMarkdownTree(cmd *cobra.Command, dir string) error {
	var children []*cobra.Command
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := genMarkdownTree(c, dir); err != nil {
			return err
		}
		children = append(children, c)
	}

	var buf bytes.Buffer
	if err := doc.GenMarkdownCustom(cmd, &buf, func(name string) string {
		return name
	}); err != nil {
		return err
	}
	raw := buf.Bytes()
	for _, h := range headings {
		raw = h.Search.ReplaceAll(raw, []byte(h.Replace))
	}
	buf.Reset()
	buf.Write(raw)

	if len(children) != 0 {
		buf.WriteString("\n## Subcommands\n\n")
		for _, c := range children {
			fmt.Fprintf(&buf, "* [%s](%s)\n", c.CommandPath(), pageName(c))
		}
	}
	return os.WriteFile(filepath.Join(dir, pageName(cmd)), buf.Bytes(), 0666)
}
