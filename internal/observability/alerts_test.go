package observability

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestLedgerAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "ledger.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}

	if len(spec.Groups) == 0 {
		t.Fatal("expected at least one alert group")
	}

	var ledgerGroup *alertGroup
	for i := range spec.Groups {
		if spec.Groups[i].Name == "ledger" {
			ledgerGroup = &spec.Groups[i]
			break
		}
	}
	if ledgerGroup == nil {
		t.Fatal("expected a ledger alert group")
	}

	wanted := map[string]bool{
		"LedgerIntegrityFindings": false,
		"JournalPostingFailures":  false,
	}
	for _, rule := range ledgerGroup.Rules {
		if rule.Alert == "" {
			t.Fatal("alert rule missing name")
		}
		if rule.Expr == "" {
			t.Fatalf("alert %s missing expr", rule.Alert)
		}
		if rule.Labels["severity"] == "" {
			t.Fatalf("alert %s missing severity label", rule.Alert)
		}
		if rule.Annotations["summary"] == "" {
			t.Fatalf("alert %s missing summary annotation", rule.Alert)
		}
		if _, ok := wanted[rule.Alert]; ok {
			wanted[rule.Alert] = true
		}
	}
	for name, seen := range wanted {
		if !seen {
			t.Fatalf("expected alert %s to be defined", name)
		}
	}
}
