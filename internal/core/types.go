// Package core wires the configuration domain to its persistence backends
// and exposes the transactional service the HTTP layer and CLI call into.
package core

import "panicconf/pkg/domain"

type (
	Chain            = domain.Chain
	Node             = domain.Node
	System           = domain.System
	GitHubRepo       = domain.GitHubRepo
	DockerHubRepo    = domain.DockerHubRepo
	EmailChannel     = domain.EmailChannel
	TelegramChannel  = domain.TelegramChannel
	TwilioChannel    = domain.TwilioChannel
	SlackChannel     = domain.SlackChannel
	PagerDutyChannel = domain.PagerDutyChannel
	OpsGenieChannel  = domain.OpsGenieChannel
	AlertConfig      = domain.AlertConfig
	User             = domain.User

	Change          = domain.Change
	Result          = domain.Result
	Violation       = domain.Violation
	Rule            = domain.Rule
	RulesEngine     = domain.RulesEngine
	Snapshot        = domain.Snapshot
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewReferenceIntegrityRule())
	engine.Register(NewDuplicateNameRule())
	return engine
}
