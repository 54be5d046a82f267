// Command sizing runs the heat-pump sizing engine from the command line.
//
// Usage:
//
//	sizing compute --area 120 --eu 85
//	sizing analyze --file projekt.pdf
//	sizing models
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"heatpump-backend/internal/analysis"
	"heatpump-backend/internal/bootstrap"
	"heatpump-backend/internal/extract"
	"heatpump-backend/internal/shared/config"
	"heatpump-backend/internal/sizing"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "sizing",
		Usage:   "Heat pump power sizing and model recommendation",
		Version: version,
		Writer:  out,
		Commands: []*cli.Command{
			computeCommand(),
			analyzeCommand(),
			modelsCommand(),
		},
	}
}

func computeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "Size a heat pump from building data",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "power", Usage: "Heating power from the project (kW)"},
			&cli.Float64Flag{Name: "area", Aliases: []string{"a"}, Usage: "Usable floor area (m²)"},
			&cli.Float64Flag{Name: "eu", Usage: "Usable energy index EU (kWh/m²·year)"},
			&cli.Float64Flag{Name: "annual-demand", Usage: "Annual heat demand (kWh/year)"},
			&cli.StringFlag{Name: "location", Usage: "Town, informational only"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format (text, json)",
			},
		},
		Action: runCompute,
	}
}

func runCompute(c *cli.Context) error {
	fields := sizing.Fields{Location: c.String("location")}
	if c.IsSet("power") {
		fields.DirectPower = sizing.Float(c.Float64("power"))
	}
	if c.IsSet("area") {
		fields.UsableArea = sizing.Float(c.Float64("area"))
	}
	if c.IsSet("eu") {
		fields.EnergyUseIndex = sizing.Float(c.Float64("eu"))
	}
	if c.IsSet("annual-demand") {
		fields.AnnualHeatDemand = sizing.Float(c.Float64("annual-demand"))
	}

	result := sizing.Compute(fields)
	if strings.EqualFold(c.String("format"), "json") {
		return writeJSON(c.App.Writer, result)
	}
	writeResult(c.App.Writer, result)
	return nil
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run the full document pipeline (LLM settings come from the environment)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to a PDF or DOCX project document",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "LLM provider (groq, openai, none)",
				EnvVars: []string{"LLM_PROVIDER"},
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	path := c.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg := config.Load()
	if p := strings.TrimSpace(c.String("provider")); p != "" {
		cfg.LLMProvider = strings.ToLower(p)
	}
	client, provider, err := bootstrap.BuildLLM(cfg)
	if err != nil {
		return err
	}
	if !provider.Configured {
		fmt.Fprintln(os.Stderr, "LLM not configured, the result will ask for manual input")
	}

	svc := &analysis.Service{
		Extractor:      extract.Adapter{},
		LLM:            client,
		MaxPromptChars: cfg.MaxPromptChars,
	}
	report, err := svc.Analyze(context.Background(), filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}
	return writeJSON(c.App.Writer, report)
}

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the heat pump catalog",
		Action: func(c *cli.Context) error {
			for _, m := range sizing.DefaultCatalog {
				fmt.Fprintf(c.App.Writer, "%5.0f kW  %s\n", m.CapacityKW, m)
			}
			fmt.Fprintf(c.App.Writer, "  >20 kW  %s\n", sizing.ConsultExpert)
			return nil
		},
	}
}

func writeResult(w io.Writer, r sizing.Result) {
	fmt.Fprintf(w, "Method:            %s\n", r.Method)
	if r.HeatingPower == nil {
		fmt.Fprintf(w, "%s\n", r.FormulaDescription)
		return
	}
	fmt.Fprintf(w, "Formula:           %s\n", r.FormulaDescription)
	fmt.Fprintf(w, "Heating power:     %v kW\n", *r.HeatingPower)
	fmt.Fprintf(w, "Hot water:         %.1f kW\n", *r.DHWPower)
	fmt.Fprintf(w, "Total power:       %.1f kW\n", *r.TotalPower)
	fmt.Fprintf(w, "Recommended model: %s\n", *r.RecommendedModel)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
