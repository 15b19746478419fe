package routing

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
)

// SeedData is the initial routing table and team directory.
type SeedData struct {
	Rules []RuleSeed `yaml:"rules"`
	Teams []TeamSeed `yaml:"teams"`
}

// RuleSeed is the YAML form of a routing rule.
type RuleSeed struct {
	Category            string   `yaml:"category"`
	Keywords            []string `yaml:"keywords"`
	AssignedTeam        string   `yaml:"assigned_team"`
	EscalationThreshold int      `yaml:"escalation_threshold"`
	SLAHours            int      `yaml:"sla_hours"`
}

// TeamSeed is the YAML form of a team.
type TeamSeed struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Email       string `yaml:"email"`
}

// DefaultSeed returns the built-in routing table.
func DefaultSeed() SeedData {
	return SeedData{
		Rules: []RuleSeed{
			{Category: domain.CategoryHardware, Keywords: []string{"laptop", "desktop", "printer", "monitor", "keyboard", "mouse", "hardware"}, AssignedTeam: "Infrastructure Team", EscalationThreshold: 4, SLAHours: 24},
			{Category: domain.CategoryNetwork, Keywords: []string{"vpn", "wifi", "internet", "connection", "network", "ethernet"}, AssignedTeam: "Network Team", EscalationThreshold: 2, SLAHours: 8},
			{Category: domain.CategoryAccess, Keywords: []string{"password", "login", "permissions", "account", "access", "reset"}, AssignedTeam: "IT Security Team", EscalationThreshold: 1, SLAHours: 4},
			{Category: domain.CategorySoftware, Keywords: []string{"software", "application", "install", "update", "license", "app"}, AssignedTeam: "Application Team", EscalationThreshold: 3, SLAHours: 16},
			{Category: domain.CategoryEmail, Keywords: []string{"email", "outlook", "teams", "communication", "mail"}, AssignedTeam: "Communication Team", EscalationThreshold: 2, SLAHours: 12},
		},
		Teams: []TeamSeed{
			{Name: "IT Security Team", Category: domain.CategoryAccess, Description: "Handles password resets, access requests, and security issues", Email: "security@helpdesk.local"},
			{Name: "Infrastructure Team", Category: domain.CategoryHardware, Description: "Manages hardware repairs, replacements, and maintenance", Email: "infrastructure@helpdesk.local"},
			{Name: "Network Team", Category: domain.CategoryNetwork, Description: "Resolves network, VPN, and connectivity issues", Email: "network@helpdesk.local"},
			{Name: "Application Team", Category: domain.CategorySoftware, Description: "Supports software installation and application issues", Email: "applications@helpdesk.local"},
			{Name: "Communication Team", Category: domain.CategoryEmail, Description: "Handles email and communication tool problems", Email: "communications@helpdesk.local"},
			{Name: DefaultTeam, Category: domain.CategoryOther, Description: "General IT support for miscellaneous issues", Email: "support@helpdesk.local"},
		},
	}
}

// LoadSeed reads seed data from a YAML file, or returns DefaultSeed when
// path is empty.
func LoadSeed(path string) (SeedData, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("read routing seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data and validates it.
func ParseSeed(data []byte) (SeedData, error) {
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedData{}, fmt.Errorf("parse routing seed: %w", err)
	}
	seen := make(map[string]struct{}, len(seed.Rules))
	for i, rule := range seed.Rules {
		if rule.Category == "" || rule.AssignedTeam == "" {
			return SeedData{}, fmt.Errorf("routing rule %d: category and assigned_team required", i)
		}
		if rule.SLAHours <= 0 {
			return SeedData{}, fmt.Errorf("routing rule %q: sla_hours must be positive", rule.Category)
		}
		if _, dup := seen[rule.Category]; dup {
			return SeedData{}, fmt.Errorf("routing rule %q: duplicate category", rule.Category)
		}
		seen[rule.Category] = struct{}{}
	}
	return seed, nil
}

// RoutingRules converts the seed to domain rules.
func (s SeedData) RoutingRules() []domain.RoutingRule {
	rules := make([]domain.RoutingRule, 0, len(s.Rules))
	for _, r := range s.Rules {
		rules = append(rules, domain.RoutingRule{
			Category:            r.Category,
			Keywords:            r.Keywords,
			AssignedTeam:        r.AssignedTeam,
			EscalationThreshold: r.EscalationThreshold,
			SLAHours:            r.SLAHours,
		})
	}
	return rules
}

// DomainTeams converts the seed to domain teams.
func (s SeedData) DomainTeams() []domain.Team {
	teams := make([]domain.Team, 0, len(s.Teams))
	for _, t := range s.Teams {
		teams = append(teams, domain.Team{
			Name:        t.Name,
			Category:    t.Category,
			Description: t.Description,
			Email:       t.Email,
		})
	}
	return teams
}

// Initialize seeds rules and teams when the store has none and returns a
// resolver over the stored rules.
func Initialize(ctx context.Context, ruleRepo repository.RoutingRuleRepository, teamRepo repository.TeamRepository, seed SeedData, logger *zap.Logger) (*Resolver, error) {
	rules, err := ruleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routing rules: %w", err)
	}
	if len(rules) == 0 {
		for _, rule := range seed.RoutingRules() {
			if err := ruleRepo.Create(ctx, &rule); err != nil {
				return nil, fmt.Errorf("seed routing rule %q: %w", rule.Category, err)
			}
			rules = append(rules, rule)
		}
		logger.Info("routing rules initialized", zap.Int("count", len(rules)))
	}

	teams, err := teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) == 0 {
		seeded := seed.DomainTeams()
		for i := range seeded {
			if err := teamRepo.Create(ctx, &seeded[i]); err != nil {
				return nil, fmt.Errorf("seed team %q: %w", seeded[i].Name, err)
			}
		}
		logger.Info("teams initialized", zap.Int("count", len(seeded)))
	}

	return NewResolver(rules), nil
}
