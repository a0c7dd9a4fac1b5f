package domain

import "context"

// TransactionView is the read surface of a transactional snapshot. Rules and
// the validation gate share the same view contract.
type TransactionView = RuleView

// Transaction exposes the operations a persistence implementation must
// support within an atomic scope. Put operations insert or fully overwrite
// by id (no partial patch); Delete operations are idempotent and treat an
// absent id as a no-op.
type Transaction interface {
	Snapshot() TransactionView
	PutChain(Chain) (Chain, error)
	DeleteChain(id string) error
	PutNode(Node) (Node, error)
	DeleteNode(id string) error
	PutSystem(System) (System, error)
	DeleteSystem(id string) error
	PutGitHubRepo(GitHubRepo) (GitHubRepo, error)
	DeleteGitHubRepo(id string) error
	PutDockerHubRepo(DockerHubRepo) (DockerHubRepo, error)
	DeleteDockerHubRepo(id string) error
	PutEmailChannel(EmailChannel) (EmailChannel, error)
	DeleteEmailChannel(id string) error
	PutTelegramChannel(TelegramChannel) (TelegramChannel, error)
	DeleteTelegramChannel(id string) error
	PutTwilioChannel(TwilioChannel) (TwilioChannel, error)
	DeleteTwilioChannel(id string) error
	PutSlackChannel(SlackChannel) (SlackChannel, error)
	DeleteSlackChannel(id string) error
	PutPagerDutyChannel(PagerDutyChannel) (PagerDutyChannel, error)
	DeletePagerDutyChannel(id string) error
	PutOpsGenieChannel(OpsGenieChannel) (OpsGenieChannel, error)
	DeleteOpsGenieChannel(id string) error
	PutAlertConfig(AlertConfig) (AlertConfig, error)
	DeleteAlertConfig(id string) error
	PutUser(User) (User, error)
	DeleteUser(id string) error
}

// Snapshot captures a point-in-time clone of every entity table. It is the
// JSON persistence format and must round-trip losslessly.
type Snapshot struct {
	Chains            map[string]Chain            `json:"chains"`
	Nodes             map[string]Node             `json:"nodes"`
	Systems           map[string]System           `json:"systems"`
	GitHubRepos       map[string]GitHubRepo       `json:"github_repos"`
	DockerHubRepos    map[string]DockerHubRepo    `json:"dockerhub_repos"`
	EmailChannels     map[string]EmailChannel     `json:"email_channels"`
	TelegramChannels  map[string]TelegramChannel  `json:"telegram_channels"`
	TwilioChannels    map[string]TwilioChannel    `json:"twilio_channels"`
	SlackChannels     map[string]SlackChannel     `json:"slack_channels"`
	PagerDutyChannels map[string]PagerDutyChannel `json:"pagerduty_channels"`
	OpsGenieChannels  map[string]OpsGenieChannel  `json:"opsgenie_channels"`
	AlertConfigs      map[string]AlertConfig      `json:"alert_configs"`
	Users             map[string]User             `json:"users"`
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot) error
	GetChain(id string) (Chain, bool)
	ListChains() []Chain
	GetNode(id string) (Node, bool)
	ListNodes() []Node
	GetSystem(id string) (System, bool)
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
}
