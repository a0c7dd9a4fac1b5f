package memory

import (
	"panicconf/pkg/domain"
)

// PutChain inserts or fully overwrites a chain record.
func (tx *transaction) PutChain(chain Chain) (Chain, error) {
	if chain.ID == "" {
		chain.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *Chain
	if existing, ok := tx.state.chains[chain.ID]; ok {
		action = domain.ActionUpdate
		decorated := decorateChain(&tx.state, cloneChain(existing))
		before = &decorated
		chain.CreatedAt = existing.CreatedAt
	} else {
		chain.CreatedAt = tx.now
	}
	chain.UpdatedAt = tx.now
	chain.ChannelIDs = dedupeStrings(chain.ChannelIDs)
	stored := cloneChain(chain)
	tx.state.chains[chain.ID] = stored
	after := decorateChain(&tx.state, cloneChain(stored))
	tx.recordChange(Change{
		Entity: domain.EntityChain,
		Action: action,
		Before: before,
		After:  after,
	})
	return after, nil
}

// DeleteChain removes a chain and cascades over its dependents: nodes,
// systems, repositories, alert configs, and any channels the chain routes
// to. Children are removed before the parent. Absent ids are a no-op.
func (tx *transaction) DeleteChain(id string) error {
	chain, ok := tx.state.chains[id]
	if !ok {
		return nil
	}

	for _, nodeID := range chainNodeIDs(&tx.state, id) {
		if err := tx.DeleteNode(nodeID); err != nil {
			return err
		}
	}
	for _, systemID := range chainSystemIDs(&tx.state, id) {
		if err := tx.DeleteSystem(systemID); err != nil {
			return err
		}
	}
	for _, repoID := range chainGitHubRepoIDs(&tx.state, id) {
		if err := tx.DeleteGitHubRepo(repoID); err != nil {
			return err
		}
	}
	for _, repoID := range chainDockerHubRepoIDs(&tx.state, id) {
		if err := tx.DeleteDockerHubRepo(repoID); err != nil {
			return err
		}
	}
	for _, cfgID := range chainAlertConfigIDs(&tx.state, id) {
		if err := tx.DeleteAlertConfig(cfgID); err != nil {
			return err
		}
	}
	for _, channelID := range chain.ChannelIDs {
		if err := tx.deleteChannelAnyKind(channelID); err != nil {
			return err
		}
	}

	before := decorateChain(&tx.state, cloneChain(chain))
	delete(tx.state.chains, id)
	tx.recordChange(Change{
		Entity: domain.EntityChain,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

func (tx *transaction) deleteChannelAnyKind(id string) error {
	if _, ok := tx.state.emailChannels[id]; ok {
		return tx.DeleteEmailChannel(id)
	}
	if _, ok := tx.state.telegramChannels[id]; ok {
		return tx.DeleteTelegramChannel(id)
	}
	if _, ok := tx.state.twilioChannels[id]; ok {
		return tx.DeleteTwilioChannel(id)
	}
	if _, ok := tx.state.slackChannels[id]; ok {
		return tx.DeleteSlackChannel(id)
	}
	if _, ok := tx.state.pagerdutyChannels[id]; ok {
		return tx.DeletePagerDutyChannel(id)
	}
	if _, ok := tx.state.opsgenieChannels[id]; ok {
		return tx.DeleteOpsGenieChannel(id)
	}
	return nil
}

// PutNode inserts or fully overwrites a node record.
func (tx *transaction) PutNode(node Node) (Node, error) {
	if node.ID == "" {
		node.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *Node
	if existing, ok := tx.state.nodes[node.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneNode(existing)
		before = &cloned
		node.CreatedAt = existing.CreatedAt
	} else {
		node.CreatedAt = tx.now
	}
	node.UpdatedAt = tx.now
	stored := cloneNode(node)
	tx.state.nodes[node.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityNode,
		Action: action,
		Before: before,
		After:  cloneNode(stored),
	})
	return cloneNode(stored), nil
}

// DeleteNode removes a node. Absent ids are a no-op.
func (tx *transaction) DeleteNode(id string) error {
	node, ok := tx.state.nodes[id]
	if !ok {
		return nil
	}
	before := cloneNode(node)
	delete(tx.state.nodes, id)
	tx.recordChange(Change{
		Entity: domain.EntityNode,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutSystem inserts or fully overwrites a system record.
func (tx *transaction) PutSystem(system System) (System, error) {
	if system.ID == "" {
		system.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *System
	if existing, ok := tx.state.systems[system.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneSystem(existing)
		before = &cloned
		system.CreatedAt = existing.CreatedAt
	} else {
		system.CreatedAt = tx.now
	}
	system.UpdatedAt = tx.now
	stored := cloneSystem(system)
	tx.state.systems[system.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntitySystem,
		Action: action,
		Before: before,
		After:  cloneSystem(stored),
	})
	return cloneSystem(stored), nil
}

// DeleteSystem removes a system. Absent ids are a no-op.
func (tx *transaction) DeleteSystem(id string) error {
	system, ok := tx.state.systems[id]
	if !ok {
		return nil
	}
	before := cloneSystem(system)
	delete(tx.state.systems, id)
	tx.recordChange(Change{
		Entity: domain.EntitySystem,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutGitHubRepo inserts or fully overwrites a GitHub repository record.
func (tx *transaction) PutGitHubRepo(repo GitHubRepo) (GitHubRepo, error) {
	if repo.ID == "" {
		repo.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *GitHubRepo
	if existing, ok := tx.state.githubRepos[repo.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneGitHubRepo(existing)
		before = &cloned
		repo.CreatedAt = existing.CreatedAt
	} else {
		repo.CreatedAt = tx.now
	}
	repo.UpdatedAt = tx.now
	stored := cloneGitHubRepo(repo)
	tx.state.githubRepos[repo.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityGitHubRepo,
		Action: action,
		Before: before,
		After:  cloneGitHubRepo(stored),
	})
	return cloneGitHubRepo(stored), nil
}

// DeleteGitHubRepo removes a GitHub repository. Absent ids are a no-op.
func (tx *transaction) DeleteGitHubRepo(id string) error {
	repo, ok := tx.state.githubRepos[id]
	if !ok {
		return nil
	}
	before := cloneGitHubRepo(repo)
	delete(tx.state.githubRepos, id)
	tx.recordChange(Change{
		Entity: domain.EntityGitHubRepo,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutDockerHubRepo inserts or fully overwrites a DockerHub repository record.
func (tx *transaction) PutDockerHubRepo(repo DockerHubRepo) (DockerHubRepo, error) {
	if repo.ID == "" {
		repo.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *DockerHubRepo
	if existing, ok := tx.state.dockerhubRepos[repo.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneDockerHubRepo(existing)
		before = &cloned
		repo.CreatedAt = existing.CreatedAt
	} else {
		repo.CreatedAt = tx.now
	}
	repo.UpdatedAt = tx.now
	stored := cloneDockerHubRepo(repo)
	tx.state.dockerhubRepos[repo.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityDockerHubRepo,
		Action: action,
		Before: before,
		After:  cloneDockerHubRepo(stored),
	})
	return cloneDockerHubRepo(stored), nil
}

// DeleteDockerHubRepo removes a DockerHub repository. Absent ids are a no-op.
func (tx *transaction) DeleteDockerHubRepo(id string) error {
	repo, ok := tx.state.dockerhubRepos[id]
	if !ok {
		return nil
	}
	before := cloneDockerHubRepo(repo)
	delete(tx.state.dockerhubRepos, id)
	tx.recordChange(Change{
		Entity: domain.EntityDockerHubRepo,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutEmailChannel inserts or fully overwrites an email channel record.
func (tx *transaction) PutEmailChannel(channel EmailChannel) (EmailChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *EmailChannel
	if existing, ok := tx.state.emailChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneEmailChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := cloneEmailChannel(channel)
	tx.state.emailChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityEmailChannel,
		Action: action,
		Before: before,
		After:  cloneEmailChannel(stored),
	})
	return cloneEmailChannel(stored), nil
}

// DeleteEmailChannel removes an email channel. Absent ids are a no-op.
func (tx *transaction) DeleteEmailChannel(id string) error {
	channel, ok := tx.state.emailChannels[id]
	if !ok {
		return nil
	}
	before := cloneEmailChannel(channel)
	delete(tx.state.emailChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntityEmailChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutTelegramChannel inserts or fully overwrites a Telegram channel record.
func (tx *transaction) PutTelegramChannel(channel TelegramChannel) (TelegramChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *TelegramChannel
	if existing, ok := tx.state.telegramChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneTelegramChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := cloneTelegramChannel(channel)
	tx.state.telegramChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityTelegramChannel,
		Action: action,
		Before: before,
		After:  cloneTelegramChannel(stored),
	})
	return cloneTelegramChannel(stored), nil
}

// DeleteTelegramChannel removes a Telegram channel. Absent ids are a no-op.
func (tx *transaction) DeleteTelegramChannel(id string) error {
	channel, ok := tx.state.telegramChannels[id]
	if !ok {
		return nil
	}
	before := cloneTelegramChannel(channel)
	delete(tx.state.telegramChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntityTelegramChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutTwilioChannel inserts or fully overwrites a Twilio channel record.
func (tx *transaction) PutTwilioChannel(channel TwilioChannel) (TwilioChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *TwilioChannel
	if existing, ok := tx.state.twilioChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneTwilioChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := cloneTwilioChannel(channel)
	tx.state.twilioChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityTwilioChannel,
		Action: action,
		Before: before,
		After:  cloneTwilioChannel(stored),
	})
	return cloneTwilioChannel(stored), nil
}

// DeleteTwilioChannel removes a Twilio channel. Absent ids are a no-op.
func (tx *transaction) DeleteTwilioChannel(id string) error {
	channel, ok := tx.state.twilioChannels[id]
	if !ok {
		return nil
	}
	before := cloneTwilioChannel(channel)
	delete(tx.state.twilioChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntityTwilioChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutSlackChannel inserts or fully overwrites a Slack channel record.
func (tx *transaction) PutSlackChannel(channel SlackChannel) (SlackChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *SlackChannel
	if existing, ok := tx.state.slackChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneSlackChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := cloneSlackChannel(channel)
	tx.state.slackChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntitySlackChannel,
		Action: action,
		Before: before,
		After:  cloneSlackChannel(stored),
	})
	return cloneSlackChannel(stored), nil
}

// DeleteSlackChannel removes a Slack channel. Absent ids are a no-op.
func (tx *transaction) DeleteSlackChannel(id string) error {
	channel, ok := tx.state.slackChannels[id]
	if !ok {
		return nil
	}
	before := cloneSlackChannel(channel)
	delete(tx.state.slackChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntitySlackChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutPagerDutyChannel inserts or fully overwrites a PagerDuty channel record.
func (tx *transaction) PutPagerDutyChannel(channel PagerDutyChannel) (PagerDutyChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *PagerDutyChannel
	if existing, ok := tx.state.pagerdutyChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := clonePagerDutyChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := clonePagerDutyChannel(channel)
	tx.state.pagerdutyChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityPagerDutyChannel,
		Action: action,
		Before: before,
		After:  clonePagerDutyChannel(stored),
	})
	return clonePagerDutyChannel(stored), nil
}

// DeletePagerDutyChannel removes a PagerDuty channel. Absent ids are a no-op.
func (tx *transaction) DeletePagerDutyChannel(id string) error {
	channel, ok := tx.state.pagerdutyChannels[id]
	if !ok {
		return nil
	}
	before := clonePagerDutyChannel(channel)
	delete(tx.state.pagerdutyChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntityPagerDutyChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutOpsGenieChannel inserts or fully overwrites an OpsGenie channel record.
func (tx *transaction) PutOpsGenieChannel(channel OpsGenieChannel) (OpsGenieChannel, error) {
	if channel.ID == "" {
		channel.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *OpsGenieChannel
	if existing, ok := tx.state.opsgenieChannels[channel.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneOpsGenieChannel(existing)
		before = &cloned
		channel.CreatedAt = existing.CreatedAt
	} else {
		channel.CreatedAt = tx.now
	}
	channel.UpdatedAt = tx.now
	stored := cloneOpsGenieChannel(channel)
	tx.state.opsgenieChannels[channel.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityOpsGenieChannel,
		Action: action,
		Before: before,
		After:  cloneOpsGenieChannel(stored),
	})
	return cloneOpsGenieChannel(stored), nil
}

// DeleteOpsGenieChannel removes an OpsGenie channel. Absent ids are a no-op.
func (tx *transaction) DeleteOpsGenieChannel(id string) error {
	channel, ok := tx.state.opsgenieChannels[id]
	if !ok {
		return nil
	}
	before := cloneOpsGenieChannel(channel)
	delete(tx.state.opsgenieChannels, id)
	tx.removeChannelFromChains(id)
	tx.recordChange(Change{
		Entity: domain.EntityOpsGenieChannel,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// removeChannelFromChains drops a deleted channel id from every chain's
// routing list so chains never reference missing channels.
func (tx *transaction) removeChannelFromChains(channelID string) {
	for id, chain := range tx.state.chains {
		if !containsString(chain.ChannelIDs, channelID) {
			continue
		}
		filtered := make([]string, 0, len(chain.ChannelIDs)-1)
		for _, existing := range chain.ChannelIDs {
			if existing != channelID {
				filtered = append(filtered, existing)
			}
		}
		chain.ChannelIDs = filtered
		tx.state.chains[id] = chain
	}
}

// PutAlertConfig inserts or fully overwrites an alert threshold config.
func (tx *transaction) PutAlertConfig(cfg AlertConfig) (AlertConfig, error) {
	if cfg.ID == "" {
		cfg.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *AlertConfig
	if existing, ok := tx.state.alertConfigs[cfg.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneAlertConfig(existing)
		before = &cloned
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.CreatedAt = tx.now
	}
	cfg.UpdatedAt = tx.now
	stored := cloneAlertConfig(cfg)
	tx.state.alertConfigs[cfg.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityAlertConfig,
		Action: action,
		Before: before,
		After:  cloneAlertConfig(stored),
	})
	return cloneAlertConfig(stored), nil
}

// DeleteAlertConfig removes an alert config. Absent ids are a no-op.
func (tx *transaction) DeleteAlertConfig(id string) error {
	cfg, ok := tx.state.alertConfigs[id]
	if !ok {
		return nil
	}
	before := cloneAlertConfig(cfg)
	delete(tx.state.alertConfigs, id)
	tx.recordChange(Change{
		Entity: domain.EntityAlertConfig,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}

// PutUser inserts or fully overwrites a user record.
func (tx *transaction) PutUser(user User) (User, error) {
	if user.ID == "" {
		user.ID = tx.store.newID()
	}
	action := domain.ActionCreate
	var before *User
	if existing, ok := tx.state.users[user.ID]; ok {
		action = domain.ActionUpdate
		cloned := cloneUser(existing)
		before = &cloned
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = tx.now
	}
	user.UpdatedAt = tx.now
	stored := cloneUser(user)
	tx.state.users[user.ID] = stored
	tx.recordChange(Change{
		Entity: domain.EntityUser,
		Action: action,
		Before: before,
		After:  cloneUser(stored),
	})
	return cloneUser(stored), nil
}

// DeleteUser removes a user. Absent ids are a no-op.
func (tx *transaction) DeleteUser(id string) error {
	user, ok := tx.state.users[id]
	if !ok {
		return nil
	}
	before := cloneUser(user)
	delete(tx.state.users, id)
	tx.recordChange(Change{
		Entity: domain.EntityUser,
		Action: domain.ActionDelete,
		Before: &before,
	})
	return nil
}
