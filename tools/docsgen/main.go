package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// Rebuilds the generated command docs (markdown, man and tldr pages) from
// docs/templates/pexctl.yaml. Not part of the pexctl binary.

type Config struct {
	Subcommands []Subcommand `yaml:"subcommands"`
	Common      Common       `yaml:"common"`
}

type Common struct {
	Flags []Flag `yaml:"flags"`
}

type Subcommand struct {
	ID          string    `yaml:"id"`
	Short       string    `yaml:"short"`
	Description string    `yaml:"description"`
	Usage       string    `yaml:"usage"`
	Flags       []Flag    `yaml:"flags"`
	Examples    []Example `yaml:"examples"`
	Notes       []string  `yaml:"notes,omitempty"`
}

type Flag struct {
	ID          string `yaml:"id"`
	Syntax      string `yaml:"syntax"`
	Description string `yaml:"description"`
	Default     string `yaml:"default,omitempty"`
	More        string `yaml:"more,omitempty"`
}

type Example struct {
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
}

type TemplateData struct {
	Subcommand
	Date    string
	Version string
	IDUpper string
}

type Output struct {
	Template string
	Folder   string
	Prefix   string
	Suffix   string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: docsgen DOCSDIR")
		os.Exit(1)
	}
	docs := os.Args[1]

	raw, err := os.ReadFile(filepath.Join(docs, "templates", "pexctl.yaml"))
	if err != nil {
		panic(err)
	}

	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		panic(err)
	}

	outputs := []Output{
		{Template: "pexctl.md.tmpl", Folder: filepath.Join(docs, "commands"), Suffix: ".md"},
		{Template: "pexctl.man.tmpl", Folder: filepath.Join(docs, "man", "share", "man1"), Prefix: "pexctl-", Suffix: ".1"},
		{Template: "pexctl.tldr.tmpl", Folder: filepath.Join(docs, "tldr"), Prefix: "pexctl-", Suffix: ".md"},
	}

	version := getVersion()
	date := time.Now().Format("January 2, 2006")

	for _, sub := range config.Subcommands {
		sub.Flags = mergeFlags(config.Common.Flags, sub.Flags)

		page := TemplateData{
			Subcommand: sub,
			Date:       date,
			Version:    version,
			IDUpper:    strings.ToUpper(sub.ID),
		}

		for _, out := range outputs {
			if err := render(docs, out, page); err != nil {
				panic(err)
			}
		}
	}
}

// mergeFlags combines the shared flags with a subcommand's own, sorted by id.
// The inputs stay untouched so later subcommands see a clean common set.
func mergeFlags(common, own []Flag) []Flag {
	merged := make([]Flag, 0, len(common)+len(own))
	merged = append(merged, common...)
	merged = append(merged, own...)

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ID < merged[j].ID
	})

	return merged
}

func render(docs string, out Output, page TemplateData) error {
	if err := os.MkdirAll(out.Folder, 0o755); err != nil {
		return err
	}

	tmpl, err := template.ParseFiles(filepath.Join(docs, "templates", out.Template))
	if err != nil {
		return err
	}

	target := filepath.Join(out.Folder, out.Prefix+page.ID+out.Suffix)
	fmt.Println("Generating", target)

	file, err := os.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, page)
}

// getVersion asks git for the newest tag, stripping the leading v. Untagged
// checkouts build docs as "dev".
func getVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--abbrev=0").Output()
	if err != nil {
		return "dev"
	}

	return strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
}
