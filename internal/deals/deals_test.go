package deals

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStageActive(t *testing.T) {
	tests := []struct {
		stage  Stage
		active bool
	}{
		{StageQualification, true},
		{StageDiscovery, true},
		{StageEvaluation, true},
		{StageConfirmation, true},
		{StageNegotiation, true},
		{StageClosedWon, false},
		{StageClosedLost, false},
		{Stage(""), false},
		{Stage("negotiation"), false}, // stages are case-sensitive CRM values
	}

	for _, tt := range tests {
		if got := tt.stage.Active(); got != tt.active {
			t.Errorf("Stage(%q).Active() = %v, want %v", tt.stage, got, tt.active)
		}
	}
}

func TestLookupByAddress(t *testing.T) {
	dir := &Directory{
		Deals: []Deal{
			{ID: "acme-q3", Name: "Acme Q3 Renewal", Stage: StageNegotiation, Contacts: []string{"jane@acme.com", "cfo@acme.com"}},
			{ID: "initech", Name: "Initech Pilot", Stage: StageClosedLost, Contacts: []string{"bill@initech.com"}},
		},
	}

	tests := []struct {
		name    string
		address string
		wantID  string
	}{
		{"exact match", "jane@acme.com", "acme-q3"},
		{"case insensitive", "Jane@Acme.com", "acme-q3"},
		{"whitespace trimmed", " cfo@acme.com ", "acme-q3"},
		{"closed deal still resolves", "bill@initech.com", "initech"},
		{"unknown address", "nobody@example.com", ""},
		{"domain alone does not match", "acme.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dir.LookupByAddress(tt.address)
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("expected no deal, got %q", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected deal %q, got nil", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("got deal %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `deals:
  - id: acme-q3
    name: Acme Q3 Renewal
    stage: Negotiation
    contacts:
      - jane@acme.com
  - id: globex
    name: Globex Expansion
    stage: Discovery
    contacts:
      - hank@globex.com
      - legal@globex.com
`
	path := filepath.Join(t.TempDir(), "deals.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(dir.Deals) != 2 {
		t.Fatalf("got %d deals, want 2", len(dir.Deals))
	}

	deal := dir.LookupByAddress("legal@globex.com")
	if deal == nil || deal.ID != "globex" {
		t.Errorf("lookup after load failed: %+v", deal)
	}
	if !deal.Stage.Active() {
		t.Errorf("Discovery should be an active stage")
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	dir := &Directory{Deals: []Deal{{ID: "acme-q3"}}}
	if err := dir.Add(Deal{ID: "ACME-Q3"}); err == nil {
		t.Error("expected duplicate ID error")
	}
}
