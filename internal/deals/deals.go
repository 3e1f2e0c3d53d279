package deals

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage is a pipeline stage from the CRM
type Stage string

const (
	StageQualification Stage = "Qualification"
	StageDiscovery     Stage = "Discovery"
	StageEvaluation    Stage = "Evaluation"
	StageConfirmation  Stage = "Confirmation"
	StageNegotiation   Stage = "Negotiation"
	StageClosedWon     Stage = "Closed Won"
	StageClosedLost    Stage = "Closed Lost"
)

// activeStages are the in-flight stages that escalate urgency
var activeStages = map[Stage]bool{
	StageQualification: true,
	StageDiscovery:     true,
	StageEvaluation:    true,
	StageConfirmation:  true,
	StageNegotiation:   true,
}

// Active reports whether the stage counts as in-flight
func (s Stage) Active() bool { return activeStages[s] }

// Deal associates contact addresses with a CRM deal
type Deal struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Stage    Stage    `yaml:"stage"`
	Company  string   `yaml:"company,omitempty"`
	Contacts []string `yaml:"contacts"` // Email addresses of deal contacts
	Notes    string   `yaml:"notes,omitempty"`
}

// Directory is the loaded deal directory with a contact-address index
type Directory struct {
	Deals []Deal `yaml:"deals"`

	byAddress map[string]*Deal
}

func LoadFromFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deals file: %w", err)
	}

	var dir Directory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse deals file: %w", err)
	}

	dir.reindex()
	return &dir, nil
}

func LoadFromDir(dirPath string) (*Directory, error) {
	dir := &Directory{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read deals directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		path := filepath.Join(dirPath, entry.Name())
		partial, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}

		dir.Deals = append(dir.Deals, partial.Deals...)
	}

	dir.reindex()
	return dir, nil
}

// reindex rebuilds the contact-address lookup map. Later deals win on
// duplicate addresses, which keeps the lookup single-result.
func (d *Directory) reindex() {
	d.byAddress = make(map[string]*Deal)
	for i := range d.Deals {
		for _, c := range d.Deals[i].Contacts {
			addr := strings.ToLower(strings.TrimSpace(c))
			if addr != "" {
				d.byAddress[addr] = &d.Deals[i]
			}
		}
	}
}

// LookupByAddress returns the deal for a contact email address, or nil if
// the address is not associated with any deal.
func (d *Directory) LookupByAddress(address string) *Deal {
	if d.byAddress == nil {
		d.reindex()
	}
	return d.byAddress[strings.ToLower(strings.TrimSpace(address))]
}

func (d *Directory) FindByID(id string) *Deal {
	id = strings.ToLower(id)
	for i := range d.Deals {
		if strings.ToLower(d.Deals[i].ID) == id {
			return &d.Deals[i]
		}
	}
	return nil
}

func (d *Directory) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to serialize deals: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (d *Directory) Add(deal Deal) error {
	if d.FindByID(deal.ID) != nil {
		return fmt.Errorf("deal with ID %q already exists", deal.ID)
	}
	d.Deals = append(d.Deals, deal)
	d.reindex()
	return nil
}

// Active returns deals whose stage is in-flight
func (d *Directory) Active() []Deal {
	var result []Deal
	for _, deal := range d.Deals {
		if deal.Stage.Active() {
			result = append(result, deal)
		}
	}
	return result
}
