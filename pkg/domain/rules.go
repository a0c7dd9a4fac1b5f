package domain

import "context"

// RuleView provides read-only access to configuration entities for rule
// evaluation and submission-time validation.
type RuleView interface {
	ListChains() []Chain
	ListNodes() []Node
	ListSystems() []System
	ListGitHubRepos() []GitHubRepo
	ListDockerHubRepos() []DockerHubRepo
	ListEmailChannels() []EmailChannel
	ListTelegramChannels() []TelegramChannel
	ListTwilioChannels() []TwilioChannel
	ListSlackChannels() []SlackChannel
	ListPagerDutyChannels() []PagerDutyChannel
	ListOpsGenieChannels() []OpsGenieChannel
	ListAlertConfigs() []AlertConfig
	ListUsers() []User
	FindChain(id string) (Chain, bool)
	FindNode(id string) (Node, bool)
	FindSystem(id string) (System, bool)
	FindGitHubRepo(id string) (GitHubRepo, bool)
	FindDockerHubRepo(id string) (DockerHubRepo, bool)
	FindAlertConfig(id string) (AlertConfig, bool)
	FindUser(id string) (User, bool)
	// HasChannel reports whether id exists in any of the channel tables and,
	// when it does, which one.
	HasChannel(id string) (EntityType, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
