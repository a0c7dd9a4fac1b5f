package core

import (
	"regexp"
	"strings"

	"panicconf/pkg/domain"
)

// The gate validates submissions before they reach the transaction. It
// accumulates every failed field rather than stopping at the first, and it
// never mutates the candidate.

// dockerHubNameRE accepts "owner/repo" or a bare "repo" for official
// images: lowercase alphanumerics, '+' and '-' only.
var dockerHubNameRE = regexp.MustCompile(`^[a-z0-9+\-]+(/[a-z0-9+\-]+)?$`)

func checkName(fields domain.FieldErrors, field, value string) {
	if value == "" {
		fields.Add(field, "is required")
		return
	}
	if strings.ContainsAny(value, "[]") {
		fields.Add(field, "must not contain '[' or ']'")
	}
}

func checkRequired(fields domain.FieldErrors, field, value string) {
	if value == "" {
		fields.Add(field, "is required")
	}
}

// nameOwner is a record claiming a name inside a uniqueness scope.
type nameOwner struct {
	id   string
	name string
}

// checkUnique enforces case-sensitive exact-name uniqueness against the
// scope's sibling records. The candidate's own record is excluded so a
// full overwrite under the same name passes. An empty scope is trivially
// unique.
func checkUnique(fields domain.FieldErrors, field, candidateID, name string, siblings []nameOwner) {
	if name == "" {
		return
	}
	for _, sibling := range siblings {
		if sibling.id == candidateID {
			continue
		}
		if sibling.name == name {
			fields.Add(field, "is already taken")
			return
		}
	}
}

func chainNameOwners(view domain.RuleView) []nameOwner {
	var owners []nameOwner
	for _, chain := range view.ListChains() {
		owners = append(owners, nameOwner{chain.ID, chain.Name})
	}
	return owners
}

// monitorableNameOwners is the shared scope for nodes, systems and both
// repository kinds: a node may not reuse a system's name and so on.
func monitorableNameOwners(view domain.RuleView) []nameOwner {
	var owners []nameOwner
	for _, node := range view.ListNodes() {
		owners = append(owners, nameOwner{node.ID, node.Name})
	}
	for _, system := range view.ListSystems() {
		owners = append(owners, nameOwner{system.ID, system.Name})
	}
	for _, repo := range view.ListGitHubRepos() {
		owners = append(owners, nameOwner{repo.ID, repo.RepoName})
	}
	for _, repo := range view.ListDockerHubRepos() {
		owners = append(owners, nameOwner{repo.ID, repo.RepoName})
	}
	return owners
}

func channelNameOwners(view domain.RuleView) []nameOwner {
	var owners []nameOwner
	for _, channel := range view.ListEmailChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	for _, channel := range view.ListTelegramChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	for _, channel := range view.ListTwilioChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	for _, channel := range view.ListSlackChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	for _, channel := range view.ListPagerDutyChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	for _, channel := range view.ListOpsGenieChannels() {
		owners = append(owners, nameOwner{channel.ID, channel.Name})
	}
	return owners
}

func userNameOwners(view domain.RuleView) []nameOwner {
	var owners []nameOwner
	for _, user := range view.ListUsers() {
		owners = append(owners, nameOwner{user.ID, user.Username})
	}
	return owners
}

func gateResult(entity domain.EntityType, fields domain.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return domain.ValidationError{Entity: entity, Fields: fields}
}

// ValidateChain gates a chain submission.
func ValidateChain(view domain.RuleView, chain Chain) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", chain.Name)
	switch chain.Kind {
	case domain.ChainCosmos, domain.ChainSubstrate, domain.ChainChainlink, domain.ChainGeneral:
	default:
		fields.Add("kind", "is not a supported chain kind")
	}
	checkUnique(fields, "name", chain.ID, chain.Name, chainNameOwners(view))
	for _, channelID := range chain.ChannelIDs {
		if _, ok := view.HasChannel(channelID); !ok {
			fields.Add("channel_ids", "references a channel that does not exist")
			break
		}
	}
	return gateResult(domain.EntityChain, fields)
}

// ValidateNode gates a node submission.
func ValidateNode(view domain.RuleView, node Node) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", node.Name)
	checkRequired(fields, "chain_id", node.ChainID)
	switch node.Kind {
	case domain.NodeCosmos, domain.NodeSubstrate, domain.NodeChainlink, domain.NodeEVM:
	default:
		fields.Add("kind", "is not a supported node kind")
	}
	if node.Kind == domain.NodeSubstrate && node.IsValidator && emptyPtr(node.StashAddress) {
		fields.Add("stash_address", "is required for substrate validators")
	}
	if node.Kind == domain.NodeEVM && emptyPtr(node.EVMHTTPURL) {
		fields.Add("evm_http_url", "is required for evm nodes")
	}
	if node.Kind == domain.NodeChainlink && emptyPtr(node.PrometheusURL) {
		fields.Add("prometheus_url", "is required for chainlink nodes")
	}
	checkUnique(fields, "name", node.ID, node.Name, monitorableNameOwners(view))
	return gateResult(domain.EntityNode, fields)
}

func emptyPtr(v *string) bool {
	return v == nil || *v == ""
}

// ValidateSystem gates a system submission.
func ValidateSystem(view domain.RuleView, system System) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", system.Name)
	checkRequired(fields, "chain_id", system.ChainID)
	checkRequired(fields, "exporter_url", system.ExporterURL)
	checkUnique(fields, "name", system.ID, system.Name, monitorableNameOwners(view))
	return gateResult(domain.EntitySystem, fields)
}

// ValidateGitHubRepo gates a GitHub repository submission.
func ValidateGitHubRepo(view domain.RuleView, repo GitHubRepo) error {
	fields := domain.FieldErrors{}
	checkName(fields, "repo_name", repo.RepoName)
	checkRequired(fields, "chain_id", repo.ChainID)
	checkUnique(fields, "repo_name", repo.ID, repo.RepoName, monitorableNameOwners(view))
	return gateResult(domain.EntityGitHubRepo, fields)
}

// ValidateDockerHubRepo gates a DockerHub repository submission.
func ValidateDockerHubRepo(view domain.RuleView, repo DockerHubRepo) error {
	fields := domain.FieldErrors{}
	checkRequired(fields, "chain_id", repo.ChainID)
	if repo.RepoName == "" {
		fields.Add("repo_name", "is required")
	} else if !dockerHubNameRE.MatchString(repo.RepoName) {
		fields.Add("repo_name", "must be 'owner/repo' or 'repo' using lowercase letters, digits, '+' or '-'")
	}
	checkUnique(fields, "repo_name", repo.ID, repo.RepoName, monitorableNameOwners(view))
	return gateResult(domain.EntityDockerHubRepo, fields)
}

// ValidateEmailChannel gates an email channel submission.
func ValidateEmailChannel(view domain.RuleView, channel EmailChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "smtp_server", channel.SMTPServer)
	checkRequired(fields, "email_from", channel.EmailFrom)
	if len(channel.EmailsTo) == 0 {
		fields.Add("emails_to", "needs at least one recipient")
	}
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntityEmailChannel, fields)
}

// ValidateTelegramChannel gates a Telegram channel submission.
func ValidateTelegramChannel(view domain.RuleView, channel TelegramChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "bot_token", channel.BotToken)
	checkRequired(fields, "chat_id", channel.ChatID)
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntityTelegramChannel, fields)
}

// ValidateTwilioChannel gates a Twilio channel submission.
func ValidateTwilioChannel(view domain.RuleView, channel TwilioChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "account_sid", channel.AccountSID)
	checkRequired(fields, "auth_token", channel.AuthToken)
	checkRequired(fields, "twilio_phone_number", channel.TwilioPhoneNumber)
	if len(channel.PhoneNumbersToDial) == 0 {
		fields.Add("phone_numbers_to_dial", "needs at least one number")
	}
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntityTwilioChannel, fields)
}

// ValidateSlackChannel gates a Slack channel submission.
func ValidateSlackChannel(view domain.RuleView, channel SlackChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "bot_token", channel.BotToken)
	checkRequired(fields, "app_token", channel.AppToken)
	checkRequired(fields, "bot_channel_id", channel.BotChannelID)
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntitySlackChannel, fields)
}

// ValidatePagerDutyChannel gates a PagerDuty channel submission.
func ValidatePagerDutyChannel(view domain.RuleView, channel PagerDutyChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "integration_key", channel.IntegrationKey)
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntityPagerDutyChannel, fields)
}

// ValidateOpsGenieChannel gates an OpsGenie channel submission.
func ValidateOpsGenieChannel(view domain.RuleView, channel OpsGenieChannel) error {
	fields := domain.FieldErrors{}
	checkName(fields, "name", channel.Name)
	checkRequired(fields, "api_token", channel.APIToken)
	checkUnique(fields, "name", channel.ID, channel.Name, channelNameOwners(view))
	return gateResult(domain.EntityOpsGenieChannel, fields)
}

// ValidateAlertConfig gates an alert threshold submission.
func ValidateAlertConfig(_ domain.RuleView, cfg AlertConfig) error {
	fields := domain.FieldErrors{}
	checkRequired(fields, "chain_id", cfg.ChainID)
	checkRequired(fields, "metric_name", cfg.MetricName)
	switch cfg.Class {
	case domain.ClassInfo, domain.ClassWarning, domain.ClassCritical:
	default:
		fields.Add("class", "is not a supported alert class")
	}
	if cfg.Warning.Threshold < 0 {
		fields.Add("warning.threshold", "must not be negative")
	}
	if cfg.Critical.Threshold < 0 {
		fields.Add("critical.threshold", "must not be negative")
	}
	if cfg.Critical.RepeatEnabled && cfg.Critical.Repeat <= 0 {
		fields.Add("critical.repeat", "must be positive when repeat is enabled")
	}
	return gateResult(domain.EntityAlertConfig, fields)
}

// ValidateUser gates an operator account submission.
func ValidateUser(view domain.RuleView, user User) error {
	fields := domain.FieldErrors{}
	checkName(fields, "username", user.Username)
	checkRequired(fields, "password_hash", user.PasswordHash)
	checkUnique(fields, "username", user.ID, user.Username, userNameOwners(view))
	return gateResult(domain.EntityUser, fields)
}
