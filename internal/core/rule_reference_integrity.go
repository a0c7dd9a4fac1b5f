package core

import (
	"context"
	"fmt"

	"panicconf/pkg/domain"
)

// NewReferenceIntegrityRule enforces that every child record resolves its
// chain and every channel id routed by a chain exists in a channel table.
// Violations block the transaction.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	requireChain := func(entity domain.EntityType, entityID, chainID string) {
		if chainID == "" {
			res.Violations = append(res.Violations, referenceViolation(entity, entityID, fmt.Sprintf("%s %s has no chain reference", entity, entityID)))
			return
		}
		if _, ok := view.FindChain(chainID); !ok {
			res.Violations = append(res.Violations, referenceViolation(entity, entityID, fmt.Sprintf("%s %s references missing chain %s", entity, entityID, chainID)))
		}
	}

	for _, node := range view.ListNodes() {
		requireChain(domain.EntityNode, node.ID, node.ChainID)
	}
	for _, system := range view.ListSystems() {
		requireChain(domain.EntitySystem, system.ID, system.ChainID)
	}
	for _, repo := range view.ListGitHubRepos() {
		requireChain(domain.EntityGitHubRepo, repo.ID, repo.ChainID)
	}
	for _, repo := range view.ListDockerHubRepos() {
		requireChain(domain.EntityDockerHubRepo, repo.ID, repo.ChainID)
	}
	for _, cfg := range view.ListAlertConfigs() {
		requireChain(domain.EntityAlertConfig, cfg.ID, cfg.ChainID)
	}

	for _, chain := range view.ListChains() {
		for _, channelID := range chain.ChannelIDs {
			if _, ok := view.HasChannel(channelID); !ok {
				res.Violations = append(res.Violations, referenceViolation(domain.EntityChain, chain.ID, fmt.Sprintf("chain %s routes to missing channel %s", chain.ID, channelID)))
			}
		}
	}

	return res, nil
}

func referenceViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "reference_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
