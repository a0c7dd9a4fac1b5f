package memory

import (
	"sort"

	"panicconf/pkg/domain"
)

var _ domain.RuleView = transactionView{}

func (v transactionView) ListChains() []Chain {
	out := make([]Chain, 0, len(v.state.chains))
	for _, chain := range v.state.chains {
		out = append(out, decorateChain(v.state, cloneChain(chain)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListNodes() []Node {
	out := make([]Node, 0, len(v.state.nodes))
	for _, node := range v.state.nodes {
		out = append(out, cloneNode(node))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListSystems() []System {
	out := make([]System, 0, len(v.state.systems))
	for _, system := range v.state.systems {
		out = append(out, cloneSystem(system))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListGitHubRepos() []GitHubRepo {
	out := make([]GitHubRepo, 0, len(v.state.githubRepos))
	for _, repo := range v.state.githubRepos {
		out = append(out, cloneGitHubRepo(repo))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListDockerHubRepos() []DockerHubRepo {
	out := make([]DockerHubRepo, 0, len(v.state.dockerhubRepos))
	for _, repo := range v.state.dockerhubRepos {
		out = append(out, cloneDockerHubRepo(repo))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListEmailChannels() []EmailChannel {
	out := make([]EmailChannel, 0, len(v.state.emailChannels))
	for _, channel := range v.state.emailChannels {
		out = append(out, cloneEmailChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListTelegramChannels() []TelegramChannel {
	out := make([]TelegramChannel, 0, len(v.state.telegramChannels))
	for _, channel := range v.state.telegramChannels {
		out = append(out, cloneTelegramChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListTwilioChannels() []TwilioChannel {
	out := make([]TwilioChannel, 0, len(v.state.twilioChannels))
	for _, channel := range v.state.twilioChannels {
		out = append(out, cloneTwilioChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListSlackChannels() []SlackChannel {
	out := make([]SlackChannel, 0, len(v.state.slackChannels))
	for _, channel := range v.state.slackChannels {
		out = append(out, cloneSlackChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListPagerDutyChannels() []PagerDutyChannel {
	out := make([]PagerDutyChannel, 0, len(v.state.pagerdutyChannels))
	for _, channel := range v.state.pagerdutyChannels {
		out = append(out, clonePagerDutyChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListOpsGenieChannels() []OpsGenieChannel {
	out := make([]OpsGenieChannel, 0, len(v.state.opsgenieChannels))
	for _, channel := range v.state.opsgenieChannels {
		out = append(out, cloneOpsGenieChannel(channel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListAlertConfigs() []AlertConfig {
	out := make([]AlertConfig, 0, len(v.state.alertConfigs))
	for _, cfg := range v.state.alertConfigs {
		out = append(out, cloneAlertConfig(cfg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, user := range v.state.users {
		out = append(out, cloneUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) FindChain(id string) (Chain, bool) {
	chain, ok := v.state.chains[id]
	if !ok {
		return Chain{}, false
	}
	return decorateChain(v.state, cloneChain(chain)), true
}

func (v transactionView) FindNode(id string) (Node, bool) {
	node, ok := v.state.nodes[id]
	if !ok {
		return Node{}, false
	}
	return cloneNode(node), true
}

func (v transactionView) FindSystem(id string) (System, bool) {
	system, ok := v.state.systems[id]
	if !ok {
		return System{}, false
	}
	return cloneSystem(system), true
}

func (v transactionView) FindGitHubRepo(id string) (GitHubRepo, bool) {
	repo, ok := v.state.githubRepos[id]
	if !ok {
		return GitHubRepo{}, false
	}
	return cloneGitHubRepo(repo), true
}

func (v transactionView) FindDockerHubRepo(id string) (DockerHubRepo, bool) {
	repo, ok := v.state.dockerhubRepos[id]
	if !ok {
		return DockerHubRepo{}, false
	}
	return cloneDockerHubRepo(repo), true
}

func (v transactionView) FindAlertConfig(id string) (AlertConfig, bool) {
	cfg, ok := v.state.alertConfigs[id]
	if !ok {
		return AlertConfig{}, false
	}
	return cloneAlertConfig(cfg), true
}

func (v transactionView) FindUser(id string) (User, bool) {
	user, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(user), true
}

// HasChannel scans every channel table for id.
func (v transactionView) HasChannel(id string) (domain.EntityType, bool) {
	if _, ok := v.state.emailChannels[id]; ok {
		return domain.EntityEmailChannel, true
	}
	if _, ok := v.state.telegramChannels[id]; ok {
		return domain.EntityTelegramChannel, true
	}
	if _, ok := v.state.twilioChannels[id]; ok {
		return domain.EntityTwilioChannel, true
	}
	if _, ok := v.state.slackChannels[id]; ok {
		return domain.EntitySlackChannel, true
	}
	if _, ok := v.state.pagerdutyChannels[id]; ok {
		return domain.EntityPagerDutyChannel, true
	}
	if _, ok := v.state.opsgenieChannels[id]; ok {
		return domain.EntityOpsGenieChannel, true
	}
	return "", false
}

// Store-level reads operate on the committed state under a read lock.

// GetChain returns a chain by id with derived child lists populated.
func (s *Store) GetChain(id string) (Chain, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindChain(id)
}

// ListChains returns all chains sorted by id.
func (s *Store) ListChains() []Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListChains()
}

// GetNode returns a node by id.
func (s *Store) GetNode(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindNode(id)
}

// ListNodes returns all nodes sorted by id.
func (s *Store) ListNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListNodes()
}

// GetSystem returns a system by id.
func (s *Store) GetSystem(id string) (System, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindSystem(id)
}

// ListSystems returns all systems sorted by id.
func (s *Store) ListSystems() []System {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListSystems()
}

// ListGitHubRepos returns all GitHub repositories sorted by id.
func (s *Store) ListGitHubRepos() []GitHubRepo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListGitHubRepos()
}

// ListDockerHubRepos returns all DockerHub repositories sorted by id.
func (s *Store) ListDockerHubRepos() []DockerHubRepo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListDockerHubRepos()
}

// ListEmailChannels returns all email channels sorted by id.
func (s *Store) ListEmailChannels() []EmailChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListEmailChannels()
}

// ListTelegramChannels returns all Telegram channels sorted by id.
func (s *Store) ListTelegramChannels() []TelegramChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListTelegramChannels()
}

// ListTwilioChannels returns all Twilio channels sorted by id.
func (s *Store) ListTwilioChannels() []TwilioChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListTwilioChannels()
}

// ListSlackChannels returns all Slack channels sorted by id.
func (s *Store) ListSlackChannels() []SlackChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListSlackChannels()
}

// ListPagerDutyChannels returns all PagerDuty channels sorted by id.
func (s *Store) ListPagerDutyChannels() []PagerDutyChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListPagerDutyChannels()
}

// ListOpsGenieChannels returns all OpsGenie channels sorted by id.
func (s *Store) ListOpsGenieChannels() []OpsGenieChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListOpsGenieChannels()
}

// ListAlertConfigs returns all alert configs sorted by id.
func (s *Store) ListAlertConfigs() []AlertConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListAlertConfigs()
}

// ListUsers returns all users sorted by id.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListUsers()
}
