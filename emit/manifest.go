package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/carlodf/pansql/ir"
)

// ProjectManifest is the project-level manifest written alongside
// program.go: the script name, the package it compiled to, and its
// transformer/sync roster, enough for a downstream build step to stage
// and run the emitted program without re-reading the IR.
type ProjectManifest struct {
	Script       string   `yaml:"script"`
	Package      string   `yaml:"package"`
	Transformers []string `yaml:"transformers"`
	Warnings     []string `yaml:"warnings,omitempty"`
}

// ConnectorEntry is one resolved Open endpoint in the connectors
// manifest: the connector kind, direction, and the connection string as
// written in the Open statement, which a deploy step wires to actual
// infrastructure.
type ConnectorEntry struct {
	Name       string `yaml:"name"`
	Connector  string `yaml:"connector"`
	Direction  string `yaml:"direction"`
	DictName   string `yaml:"dictionary"`
	StreamName string `yaml:"stream"`
	ConnString string `yaml:"connection"`
	Driver     string `yaml:"driver,omitempty"`
}

// ConnectorsManifest lists every resolved endpoint the program opens.
type ConnectorsManifest struct {
	Script     string            `yaml:"script"`
	Connectors []ConnectorEntry `yaml:"connectors"`
}

func (g *Generator) writeManifests() error {
	project := ProjectManifest{
		Script:   g.program.ScriptName,
		Package:  g.pkg,
		Warnings: g.program.Warnings,
	}
	for _, tr := range g.program.Transformers {
		project.Transformers = append(project.Transformers, tr.Name)
	}
	if err := g.writeYAML(project, "project.yaml"); err != nil {
		return err
	}

	connectors := ConnectorsManifest{Script: g.program.ScriptName}
	for _, o := range g.program.Opens {
		connectors.Connectors = append(connectors.Connectors, connectorEntry(o))
	}
	return g.writeYAML(connectors, "connectors.yaml")
}

func connectorEntry(o ir.OpenEntry) ConnectorEntry {
	direction := "read"
	if o.IsWriter {
		direction = "write"
	}
	driver, _ := driverModulePath(o.Connector)
	return ConnectorEntry{
		Name: o.Name, Connector: o.Connector, Direction: direction,
		DictName: o.DictName, StreamName: o.StreamName, ConnString: o.ConnString,
		Driver: driver,
	}
}

func (g *Generator) writeYAML(v any, filename string) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return fmt.Errorf("emit: mkdir %s: %w", g.outDir, err)
	}
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("emit: marshal %s: %w", filename, err)
	}
	if err := os.WriteFile(filepath.Join(g.outDir, filename), raw, 0o644); err != nil {
		return fmt.Errorf("emit: write %s: %w", filename, err)
	}
	return nil
}
