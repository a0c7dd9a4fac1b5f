package core

import (
	"context"
	"fmt"

	"panicconf/pkg/domain"
)

// NewDuplicateNameRule reports standing duplicate names inside each
// uniqueness scope. Duplicates warn rather than block: imported state may
// carry them transiently and the submission gate is the enforcement point.
func NewDuplicateNameRule() domain.Rule {
	return duplicateNameRule{}
}

type duplicateNameRule struct{}

func (duplicateNameRule) Name() string { return "duplicate_name" }

type namedRecord struct {
	entity domain.EntityType
	id     string
	name   string
}

func (duplicateNameRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	var chains []namedRecord
	for _, chain := range view.ListChains() {
		chains = append(chains, namedRecord{domain.EntityChain, chain.ID, chain.Name})
	}
	reportDuplicates(&res, chains)

	var monitorables []namedRecord
	for _, node := range view.ListNodes() {
		monitorables = append(monitorables, namedRecord{domain.EntityNode, node.ID, node.Name})
	}
	for _, system := range view.ListSystems() {
		monitorables = append(monitorables, namedRecord{domain.EntitySystem, system.ID, system.Name})
	}
	for _, repo := range view.ListGitHubRepos() {
		monitorables = append(monitorables, namedRecord{domain.EntityGitHubRepo, repo.ID, repo.RepoName})
	}
	for _, repo := range view.ListDockerHubRepos() {
		monitorables = append(monitorables, namedRecord{domain.EntityDockerHubRepo, repo.ID, repo.RepoName})
	}
	reportDuplicates(&res, monitorables)

	var channels []namedRecord
	for _, channel := range view.ListEmailChannels() {
		channels = append(channels, namedRecord{domain.EntityEmailChannel, channel.ID, channel.Name})
	}
	for _, channel := range view.ListTelegramChannels() {
		channels = append(channels, namedRecord{domain.EntityTelegramChannel, channel.ID, channel.Name})
	}
	for _, channel := range view.ListTwilioChannels() {
		channels = append(channels, namedRecord{domain.EntityTwilioChannel, channel.ID, channel.Name})
	}
	for _, channel := range view.ListSlackChannels() {
		channels = append(channels, namedRecord{domain.EntitySlackChannel, channel.ID, channel.Name})
	}
	for _, channel := range view.ListPagerDutyChannels() {
		channels = append(channels, namedRecord{domain.EntityPagerDutyChannel, channel.ID, channel.Name})
	}
	for _, channel := range view.ListOpsGenieChannels() {
		channels = append(channels, namedRecord{domain.EntityOpsGenieChannel, channel.ID, channel.Name})
	}
	reportDuplicates(&res, channels)

	var users []namedRecord
	for _, user := range view.ListUsers() {
		users = append(users, namedRecord{domain.EntityUser, user.ID, user.Username})
	}
	reportDuplicates(&res, users)

	return res, nil
}

// reportDuplicates flags every record after the first claimant of a name.
// Name comparison is case sensitive.
func reportDuplicates(res *domain.Result, records []namedRecord) {
	firstByName := make(map[string]namedRecord, len(records))
	for _, record := range records {
		if record.name == "" {
			continue
		}
		first, ok := firstByName[record.name]
		if !ok {
			firstByName[record.name] = record
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "duplicate_name",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("%s %s duplicates name %q held by %s %s", record.entity, record.id, record.name, first.entity, first.id),
			Entity:   record.entity,
			EntityID: record.id,
		})
	}
}
