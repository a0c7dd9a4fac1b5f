// Package domain defines the configuration entities, change records, and
// rule evaluation primitives used by panicconf.
package domain

import "time"

// EntityType identifies the type of record stored in the configuration store.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityChain identifies a monitored chain record.
	EntityChain EntityType = "chain"
	// EntityNode identifies a chain node record.
	EntityNode EntityType = "node"
	// EntitySystem identifies a monitored host system record.
	EntitySystem EntityType = "system"
	// EntityGitHubRepo identifies a GitHub repository record.
	EntityGitHubRepo EntityType = "github_repo"
	// EntityDockerHubRepo identifies a DockerHub repository record.
	EntityDockerHubRepo EntityType = "dockerhub_repo"
	// EntityEmailChannel identifies an email notification channel record.
	EntityEmailChannel EntityType = "email_channel"
	// EntityTelegramChannel identifies a Telegram notification channel record.
	EntityTelegramChannel EntityType = "telegram_channel"
	// EntityTwilioChannel identifies a Twilio call channel record.
	EntityTwilioChannel EntityType = "twilio_channel"
	// EntitySlackChannel identifies a Slack notification channel record.
	EntitySlackChannel EntityType = "slack_channel"
	// EntityPagerDutyChannel identifies a PagerDuty channel record.
	EntityPagerDutyChannel EntityType = "pagerduty_channel"
	// EntityOpsGenieChannel identifies an OpsGenie channel record.
	EntityOpsGenieChannel EntityType = "opsgenie_channel"
	// EntityAlertConfig identifies a per-chain alert threshold record.
	EntityAlertConfig EntityType = "alert_config"
	// EntityUser identifies an operator account record.
	EntityUser EntityType = "user"
)

// ChainKind enumerates the supported chain families.
type ChainKind string

// Chain families recognised by the installer forms.
const (
	ChainCosmos    ChainKind = "cosmos"
	ChainSubstrate ChainKind = "substrate"
	ChainChainlink ChainKind = "chainlink"
	// ChainGeneral groups plain host systems and repositories that do not
	// belong to a blockchain network.
	ChainGeneral ChainKind = "general"
)

// NodeKind enumerates the node flavours a chain can monitor.
type NodeKind string

// Node flavours with their own endpoint field sets.
const (
	NodeCosmos    NodeKind = "cosmos"
	NodeSubstrate NodeKind = "substrate"
	NodeChainlink NodeKind = "chainlink"
	NodeEVM       NodeKind = "evm"
)

// AlertClass is the severity class an alert config escalates to.
type AlertClass string

// Alert severity classes used by alert configs and channel routing.
const (
	ClassInfo     AlertClass = "info"
	ClassWarning  AlertClass = "warning"
	ClassCritical AlertClass = "critical"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all configuration records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chain groups the monitorables and alert routing for one network.
// The child-id lists other than ChannelIDs are derived from the children's
// chain_id references and rebuilt by the store on read and import.
type Chain struct {
	Base
	Name             string    `json:"name"`
	Kind             ChainKind `json:"kind"`
	NodeIDs          []string  `json:"node_ids"`
	SystemIDs        []string  `json:"system_ids"`
	GitHubRepoIDs    []string  `json:"github_repo_ids"`
	DockerHubRepoIDs []string  `json:"dockerhub_repo_ids"`
	// ChannelIDs lists the notification channels the chain's alert routing
	// fans out to. Ids may live in any of the channel tables.
	ChannelIDs     []string `json:"channel_ids"`
	AlertConfigIDs []string `json:"alert_config_ids"`
}

// Node is a monitored chain node. Kind selects which of the optional
// endpoint fields are meaningful; the rest stay nil.
type Node struct {
	Base
	ChainID string   `json:"chain_id"`
	Name    string   `json:"name"`
	Kind    NodeKind `json:"kind"`

	TendermintRPCURL *string `json:"tendermint_rpc_url,omitempty"`
	CosmosRESTURL    *string `json:"cosmos_rest_url,omitempty"`
	PrometheusURL    *string `json:"prometheus_url,omitempty"`
	ExporterURL      *string `json:"exporter_url,omitempty"`
	WSURL            *string `json:"ws_url,omitempty"`
	StashAddress     *string `json:"stash_address,omitempty"`
	EVMHTTPURL       *string `json:"evm_http_url,omitempty"`

	GovernanceAddresses []string `json:"governance_addresses,omitempty"`

	IsValidator     bool `json:"is_validator"`
	IsArchiveNode   bool `json:"is_archive_node"`
	UseAsDataSource bool `json:"use_as_data_source"`
	Monitor         bool `json:"monitor"`
}

// System is a monitored host running node exporter.
type System struct {
	Base
	ChainID     string `json:"chain_id"`
	Name        string `json:"name"`
	ExporterURL string `json:"exporter_url"`
	Monitor     bool   `json:"monitor"`
}

// GitHubRepo tracks release monitoring for a GitHub repository.
type GitHubRepo struct {
	Base
	ChainID string `json:"chain_id"`
	// RepoName uses the canonical "owner/repo/" form the release monitor expects.
	RepoName string `json:"repo_name"`
	Monitor  bool   `json:"monitor"`
}

// DockerHubRepo tracks tag monitoring for a DockerHub repository.
type DockerHubRepo struct {
	Base
	ChainID string `json:"chain_id"`
	// RepoName is "owner/repo" or a bare "repo" (official images).
	RepoName string `json:"repo_name"`
	Monitor  bool   `json:"monitor"`
}

// SeverityFlags toggles which alert classes a channel receives.
type SeverityFlags struct {
	Info     bool `json:"info"`
	Warning  bool `json:"warning"`
	Critical bool `json:"critical"`
	Error    bool `json:"error"`
}

// EmailChannel delivers alerts over SMTP.
type EmailChannel struct {
	Base
	Name       string   `json:"name"`
	SMTPServer string   `json:"smtp_server"`
	Port       int      `json:"port"`
	EmailFrom  string   `json:"email_from"`
	EmailsTo   []string `json:"emails_to"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	SeverityFlags
}

// TelegramChannel delivers alerts (and optionally accepts commands) via a bot.
type TelegramChannel struct {
	Base
	Name     string `json:"name"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Alerts   bool   `json:"alerts"`
	Commands bool   `json:"commands"`
	SeverityFlags
}

// TwilioChannel places phone calls for critical alerts only, so it carries
// no per-class toggles.
type TwilioChannel struct {
	Base
	Name               string   `json:"name"`
	AccountSID         string   `json:"account_sid"`
	AuthToken          string   `json:"auth_token"`
	TwilioPhoneNumber  string   `json:"twilio_phone_number"`
	PhoneNumbersToDial []string `json:"phone_numbers_to_dial"`
}

// SlackChannel delivers alerts to a Slack channel via a bot and app token.
type SlackChannel struct {
	Base
	Name         string `json:"name"`
	BotToken     string `json:"bot_token"`
	AppToken     string `json:"app_token"`
	BotChannelID string `json:"bot_channel_id"`
	Alerts       bool   `json:"alerts"`
	Commands     bool   `json:"commands"`
	SeverityFlags
}

// PagerDutyChannel raises incidents through an Events v2 integration key.
type PagerDutyChannel struct {
	Base
	Name           string `json:"name"`
	IntegrationKey string `json:"integration_key"`
	SeverityFlags
}

// OpsGenieChannel raises alerts through the OpsGenie API.
type OpsGenieChannel struct {
	Base
	Name     string `json:"name"`
	APIToken string `json:"api_token"`
	// EU selects the European API host.
	EU bool `json:"eu"`
	SeverityFlags
}

// ThresholdLevel is the warning half of an alert config.
type ThresholdLevel struct {
	Threshold float64 `json:"threshold"`
	Enabled   bool    `json:"enabled"`
}

// CriticalLevel is the critical half of an alert config, with repeat and
// time-window escalation settings in seconds.
type CriticalLevel struct {
	Threshold     float64 `json:"threshold"`
	Repeat        int     `json:"repeat"`
	RepeatEnabled bool    `json:"repeat_enabled"`
	TimeWindow    int     `json:"time_window"`
	Enabled       bool    `json:"enabled"`
}

// AlertConfig holds the per-chain thresholds for one logical metric.
type AlertConfig struct {
	Base
	ChainID    string         `json:"chain_id"`
	MetricName string         `json:"metric_name"`
	Enabled    bool           `json:"enabled"`
	Warning    ThresholdLevel `json:"warning"`
	Critical   CriticalLevel  `json:"critical"`
	Class      AlertClass     `json:"class"`
}

// User is an installer operator account.
type User struct {
	Base
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was overwritten in full.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine together with the
// change log of the transaction that produced them.
type Result struct {
	Violations []Violation
	Changes    []Change
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
