// Package memory provides an in-memory implementation of the configuration
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"panicconf/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Chain aliases domain.Chain for in-memory persistence operations.
	Chain = domain.Chain
	// Node aliases domain.Node.
	Node = domain.Node
	// System aliases domain.System.
	System = domain.System
	// GitHubRepo aliases domain.GitHubRepo.
	GitHubRepo = domain.GitHubRepo
	// DockerHubRepo aliases domain.DockerHubRepo.
	DockerHubRepo = domain.DockerHubRepo
	// EmailChannel aliases domain.EmailChannel.
	EmailChannel = domain.EmailChannel
	// TelegramChannel aliases domain.TelegramChannel.
	TelegramChannel = domain.TelegramChannel
	// TwilioChannel aliases domain.TwilioChannel.
	TwilioChannel = domain.TwilioChannel
	// SlackChannel aliases domain.SlackChannel.
	SlackChannel = domain.SlackChannel
	// PagerDutyChannel aliases domain.PagerDutyChannel.
	PagerDutyChannel = domain.PagerDutyChannel
	// OpsGenieChannel aliases domain.OpsGenieChannel.
	OpsGenieChannel = domain.OpsGenieChannel
	// AlertConfig aliases domain.AlertConfig.
	AlertConfig = domain.AlertConfig
	// User aliases domain.User.
	User = domain.User
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the lossless persistence format.
	Snapshot = domain.Snapshot
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	chains            map[string]Chain
	nodes             map[string]Node
	systems           map[string]System
	githubRepos       map[string]GitHubRepo
	dockerhubRepos    map[string]DockerHubRepo
	emailChannels     map[string]EmailChannel
	telegramChannels  map[string]TelegramChannel
	twilioChannels    map[string]TwilioChannel
	slackChannels     map[string]SlackChannel
	pagerdutyChannels map[string]PagerDutyChannel
	opsgenieChannels  map[string]OpsGenieChannel
	alertConfigs      map[string]AlertConfig
	users             map[string]User
}

func newMemoryState() memoryState {
	return memoryState{
		chains:            make(map[string]Chain),
		nodes:             make(map[string]Node),
		systems:           make(map[string]System),
		githubRepos:       make(map[string]GitHubRepo),
		dockerhubRepos:    make(map[string]DockerHubRepo),
		emailChannels:     make(map[string]EmailChannel),
		telegramChannels:  make(map[string]TelegramChannel),
		twilioChannels:    make(map[string]TwilioChannel),
		slackChannels:     make(map[string]SlackChannel),
		pagerdutyChannels: make(map[string]PagerDutyChannel),
		opsgenieChannels:  make(map[string]OpsGenieChannel),
		alertConfigs:      make(map[string]AlertConfig),
		users:             make(map[string]User),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Chains:            make(map[string]Chain, len(state.chains)),
		Nodes:             make(map[string]Node, len(state.nodes)),
		Systems:           make(map[string]System, len(state.systems)),
		GitHubRepos:       make(map[string]GitHubRepo, len(state.githubRepos)),
		DockerHubRepos:    make(map[string]DockerHubRepo, len(state.dockerhubRepos)),
		EmailChannels:     make(map[string]EmailChannel, len(state.emailChannels)),
		TelegramChannels:  make(map[string]TelegramChannel, len(state.telegramChannels)),
		TwilioChannels:    make(map[string]TwilioChannel, len(state.twilioChannels)),
		SlackChannels:     make(map[string]SlackChannel, len(state.slackChannels)),
		PagerDutyChannels: make(map[string]PagerDutyChannel, len(state.pagerdutyChannels)),
		OpsGenieChannels:  make(map[string]OpsGenieChannel, len(state.opsgenieChannels)),
		AlertConfigs:      make(map[string]AlertConfig, len(state.alertConfigs)),
		Users:             make(map[string]User, len(state.users)),
	}
	for k, v := range state.chains {
		s.Chains[k] = cloneChain(decorateChain(&state, v))
	}
	for k, v := range state.nodes {
		s.Nodes[k] = cloneNode(v)
	}
	for k, v := range state.systems {
		s.Systems[k] = cloneSystem(v)
	}
	for k, v := range state.githubRepos {
		s.GitHubRepos[k] = cloneGitHubRepo(v)
	}
	for k, v := range state.dockerhubRepos {
		s.DockerHubRepos[k] = cloneDockerHubRepo(v)
	}
	for k, v := range state.emailChannels {
		s.EmailChannels[k] = cloneEmailChannel(v)
	}
	for k, v := range state.telegramChannels {
		s.TelegramChannels[k] = cloneTelegramChannel(v)
	}
	for k, v := range state.twilioChannels {
		s.TwilioChannels[k] = cloneTwilioChannel(v)
	}
	for k, v := range state.slackChannels {
		s.SlackChannels[k] = cloneSlackChannel(v)
	}
	for k, v := range state.pagerdutyChannels {
		s.PagerDutyChannels[k] = clonePagerDutyChannel(v)
	}
	for k, v := range state.opsgenieChannels {
		s.OpsGenieChannels[k] = cloneOpsGenieChannel(v)
	}
	for k, v := range state.alertConfigs {
		s.AlertConfigs[k] = cloneAlertConfig(v)
	}
	for k, v := range state.users {
		s.Users[k] = cloneUser(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Chains {
		state.chains[k] = cloneChain(v)
	}
	for k, v := range s.Nodes {
		state.nodes[k] = cloneNode(v)
	}
	for k, v := range s.Systems {
		state.systems[k] = cloneSystem(v)
	}
	for k, v := range s.GitHubRepos {
		state.githubRepos[k] = cloneGitHubRepo(v)
	}
	for k, v := range s.DockerHubRepos {
		state.dockerhubRepos[k] = cloneDockerHubRepo(v)
	}
	for k, v := range s.EmailChannels {
		state.emailChannels[k] = cloneEmailChannel(v)
	}
	for k, v := range s.TelegramChannels {
		state.telegramChannels[k] = cloneTelegramChannel(v)
	}
	for k, v := range s.TwilioChannels {
		state.twilioChannels[k] = cloneTwilioChannel(v)
	}
	for k, v := range s.SlackChannels {
		state.slackChannels[k] = cloneSlackChannel(v)
	}
	for k, v := range s.PagerDutyChannels {
		state.pagerdutyChannels[k] = clonePagerDutyChannel(v)
	}
	for k, v := range s.OpsGenieChannels {
		state.opsgenieChannels[k] = cloneOpsGenieChannel(v)
	}
	for k, v := range s.AlertConfigs {
		state.alertConfigs[k] = cloneAlertConfig(v)
	}
	for k, v := range s.Users {
		state.users[k] = cloneUser(v)
	}
	return state
}

// migrateSnapshot normalizes an imported snapshot: allocates nil tables,
// drops children whose chain reference no longer resolves, filters channel
// routing lists down to channels that still exist, and rebuilds the derived
// child-id lists on every chain.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Chains == nil {
		snapshot.Chains = map[string]Chain{}
	}
	if snapshot.Nodes == nil {
		snapshot.Nodes = map[string]Node{}
	}
	if snapshot.Systems == nil {
		snapshot.Systems = map[string]System{}
	}
	if snapshot.GitHubRepos == nil {
		snapshot.GitHubRepos = map[string]GitHubRepo{}
	}
	if snapshot.DockerHubRepos == nil {
		snapshot.DockerHubRepos = map[string]DockerHubRepo{}
	}
	if snapshot.EmailChannels == nil {
		snapshot.EmailChannels = map[string]EmailChannel{}
	}
	if snapshot.TelegramChannels == nil {
		snapshot.TelegramChannels = map[string]TelegramChannel{}
	}
	if snapshot.TwilioChannels == nil {
		snapshot.TwilioChannels = map[string]TwilioChannel{}
	}
	if snapshot.SlackChannels == nil {
		snapshot.SlackChannels = map[string]SlackChannel{}
	}
	if snapshot.PagerDutyChannels == nil {
		snapshot.PagerDutyChannels = map[string]PagerDutyChannel{}
	}
	if snapshot.OpsGenieChannels == nil {
		snapshot.OpsGenieChannels = map[string]OpsGenieChannel{}
	}
	if snapshot.AlertConfigs == nil {
		snapshot.AlertConfigs = map[string]AlertConfig{}
	}
	if snapshot.Users == nil {
		snapshot.Users = map[string]User{}
	}

	chainExists := func(id string) bool {
		_, ok := snapshot.Chains[id]
		return ok
	}
	channelExists := func(id string) bool {
		if _, ok := snapshot.EmailChannels[id]; ok {
			return true
		}
		if _, ok := snapshot.TelegramChannels[id]; ok {
			return true
		}
		if _, ok := snapshot.TwilioChannels[id]; ok {
			return true
		}
		if _, ok := snapshot.SlackChannels[id]; ok {
			return true
		}
		if _, ok := snapshot.PagerDutyChannels[id]; ok {
			return true
		}
		_, ok := snapshot.OpsGenieChannels[id]
		return ok
	}

	for id, node := range snapshot.Nodes {
		if node.ChainID == "" || !chainExists(node.ChainID) {
			delete(snapshot.Nodes, id)
		}
	}
	for id, system := range snapshot.Systems {
		if system.ChainID == "" || !chainExists(system.ChainID) {
			delete(snapshot.Systems, id)
		}
	}
	for id, repo := range snapshot.GitHubRepos {
		if repo.ChainID == "" || !chainExists(repo.ChainID) {
			delete(snapshot.GitHubRepos, id)
		}
	}
	for id, repo := range snapshot.DockerHubRepos {
		if repo.ChainID == "" || !chainExists(repo.ChainID) {
			delete(snapshot.DockerHubRepos, id)
		}
	}
	for id, cfg := range snapshot.AlertConfigs {
		if cfg.ChainID == "" || !chainExists(cfg.ChainID) {
			delete(snapshot.AlertConfigs, id)
		}
	}

	state := memoryStateFromSnapshot(snapshot)
	for id, chain := range snapshot.Chains {
		if filtered, changed := filterIDs(chain.ChannelIDs, channelExists); changed {
			chain.ChannelIDs = filtered
		}
		snapshot.Chains[id] = decorateChain(&state, chain)
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.chains {
		cloned.chains[k] = cloneChain(v)
	}
	for k, v := range s.nodes {
		cloned.nodes[k] = cloneNode(v)
	}
	for k, v := range s.systems {
		cloned.systems[k] = cloneSystem(v)
	}
	for k, v := range s.githubRepos {
		cloned.githubRepos[k] = cloneGitHubRepo(v)
	}
	for k, v := range s.dockerhubRepos {
		cloned.dockerhubRepos[k] = cloneDockerHubRepo(v)
	}
	for k, v := range s.emailChannels {
		cloned.emailChannels[k] = cloneEmailChannel(v)
	}
	for k, v := range s.telegramChannels {
		cloned.telegramChannels[k] = cloneTelegramChannel(v)
	}
	for k, v := range s.twilioChannels {
		cloned.twilioChannels[k] = cloneTwilioChannel(v)
	}
	for k, v := range s.slackChannels {
		cloned.slackChannels[k] = cloneSlackChannel(v)
	}
	for k, v := range s.pagerdutyChannels {
		cloned.pagerdutyChannels[k] = clonePagerDutyChannel(v)
	}
	for k, v := range s.opsgenieChannels {
		cloned.opsgenieChannels[k] = cloneOpsGenieChannel(v)
	}
	for k, v := range s.alertConfigs {
		cloned.alertConfigs[k] = cloneAlertConfig(v)
	}
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	return cloned
}

func cloneChain(c Chain) Chain {
	cp := c
	cp.NodeIDs = append([]string(nil), c.NodeIDs...)
	cp.SystemIDs = append([]string(nil), c.SystemIDs...)
	cp.GitHubRepoIDs = append([]string(nil), c.GitHubRepoIDs...)
	cp.DockerHubRepoIDs = append([]string(nil), c.DockerHubRepoIDs...)
	cp.ChannelIDs = append([]string(nil), c.ChannelIDs...)
	cp.AlertConfigIDs = append([]string(nil), c.AlertConfigIDs...)
	return cp
}

func cloneNode(n Node) Node {
	cp := n
	cp.TendermintRPCURL = cloneStringPtr(n.TendermintRPCURL)
	cp.CosmosRESTURL = cloneStringPtr(n.CosmosRESTURL)
	cp.PrometheusURL = cloneStringPtr(n.PrometheusURL)
	cp.ExporterURL = cloneStringPtr(n.ExporterURL)
	cp.WSURL = cloneStringPtr(n.WSURL)
	cp.StashAddress = cloneStringPtr(n.StashAddress)
	cp.EVMHTTPURL = cloneStringPtr(n.EVMHTTPURL)
	if len(n.GovernanceAddresses) != 0 {
		cp.GovernanceAddresses = append([]string(nil), n.GovernanceAddresses...)
	}
	return cp
}

func cloneSystem(s System) System                { return s }
func cloneGitHubRepo(r GitHubRepo) GitHubRepo    { return r }
func cloneDockerHubRepo(r DockerHubRepo) DockerHubRepo { return r }

func cloneEmailChannel(c EmailChannel) EmailChannel {
	cp := c
	cp.EmailsTo = append([]string(nil), c.EmailsTo...)
	return cp
}

func cloneTelegramChannel(c TelegramChannel) TelegramChannel { return c }

func cloneTwilioChannel(c TwilioChannel) TwilioChannel {
	cp := c
	cp.PhoneNumbersToDial = append([]string(nil), c.PhoneNumbersToDial...)
	return cp
}

func cloneSlackChannel(c SlackChannel) SlackChannel             { return c }
func clonePagerDutyChannel(c PagerDutyChannel) PagerDutyChannel { return c }
func cloneOpsGenieChannel(c OpsGenieChannel) OpsGenieChannel    { return c }
func cloneAlertConfig(c AlertConfig) AlertConfig                { return c }
func cloneUser(u User) User                                     { return u }

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func dedupeStrings(values []string) []string {
	if len(values) <= 1 {
		return append([]string(nil), values...)
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func filterIDs(values []string, exists func(string) bool) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	changed := false
	for _, v := range values {
		if _, ok := seen[v]; ok {
			changed = true
			continue
		}
		seen[v] = struct{}{}
		if !exists(v) {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed && len(out) == len(values) {
		return values, false
	}
	return out, true
}

func chainNodeIDs(state *memoryState, chainID string) []string {
	var ids []string
	for _, node := range state.nodes {
		if node.ChainID == chainID {
			ids = append(ids, node.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func chainSystemIDs(state *memoryState, chainID string) []string {
	var ids []string
	for _, system := range state.systems {
		if system.ChainID == chainID {
			ids = append(ids, system.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func chainGitHubRepoIDs(state *memoryState, chainID string) []string {
	var ids []string
	for _, repo := range state.githubRepos {
		if repo.ChainID == chainID {
			ids = append(ids, repo.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func chainDockerHubRepoIDs(state *memoryState, chainID string) []string {
	var ids []string
	for _, repo := range state.dockerhubRepos {
		if repo.ChainID == chainID {
			ids = append(ids, repo.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func chainAlertConfigIDs(state *memoryState, chainID string) []string {
	var ids []string
	for _, cfg := range state.alertConfigs {
		if cfg.ChainID == chainID {
			ids = append(ids, cfg.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// decorateChain rebuilds the derived child-id lists from the children's
// chain references. ChannelIDs is the only list the caller owns.
func decorateChain(state *memoryState, chain Chain) Chain {
	chain.NodeIDs = chainNodeIDs(state, chain.ID)
	chain.SystemIDs = chainSystemIDs(state, chain.ID)
	chain.GitHubRepoIDs = chainGitHubRepoIDs(state, chain.ID)
	chain.DockerHubRepoIDs = chainDockerHubRepoIDs(state, chain.ID)
	chain.AlertConfigIDs = chainAlertConfigIDs(state, chain.ID)
	return chain
}

// Store provides an in-memory transactional store for the configuration domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
	return nil
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) transactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	result.Changes = tx.changes
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}
