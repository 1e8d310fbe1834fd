package cli

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"landedcost/internal/config"
	"landedcost/internal/costmodel"
	"landedcost/internal/rates"
	"landedcost/internal/savings"
	"landedcost/internal/scenario"
	"landedcost/internal/service"
)

// AnalyzeInput names the YAML documents a local analysis reads.
type AnalyzeInput struct {
	// ConfigPath is the server config to take cost-model parameters from. Empty uses defaults.
	ConfigPath   string
	ProductsPath string
	ScenarioPath string
	// RatesPath overrides rates.static_file from the config.
	RatesPath string
}

type productsFile struct {
	Products []costmodel.Product `yaml:"products"`
}

type scenarioFile struct {
	Configuration scenario.Configuration `yaml:"configuration"`
}

// staticProducts serves the engine from an in-memory list.
type staticProducts map[string]costmodel.Product

func (s staticProducts) GetProducts(_ context.Context, ids []string) ([]costmodel.Product, error) {
	out := make([]costmodel.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// AnalyzeLocal runs a batch savings analysis without a server, against a static rate table.
func AnalyzeLocal(ctx context.Context, in AnalyzeInput, logger *zap.Logger) (*savings.BatchSavingsAnalysis, error) {
	cfg, err := config.Load(in.ConfigPath, in.ConfigPath == "")
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	ratesPath := in.RatesPath
	if ratesPath == "" {
		ratesPath = cfg.Rates.StaticFile
	}
	provider, err := rates.LoadStaticFile(ratesPath)
	if err != nil {
		return nil, err
	}

	var pf productsFile
	if err := readYAML(in.ProductsPath, &pf); err != nil {
		return nil, err
	}
	var sf scenarioFile
	if err := readYAML(in.ScenarioPath, &sf); err != nil {
		return nil, err
	}

	products := staticProducts{}
	ids := make([]string, 0, len(pf.Products))
	for _, p := range pf.Products {
		if _, dup := products[p.ID]; dup {
			continue
		}
		products[p.ID] = p
		ids = append(ids, p.ID)
	}

	engine := service.NewEngine(cfg, provider, products, logger)
	return engine.AnalyzeBatchSavings(ctx, ids, sf.Configuration, savings.RunOptions{})
}

func readYAML(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}
