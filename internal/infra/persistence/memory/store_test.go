package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"panicconf/pkg/domain"
)

func newTestStore() *Store {
	return NewStore(domain.NewRulesEngine())
}

func mustPutChain(t *testing.T, store *Store, chain Chain) Chain {
	t.Helper()
	var stored Chain
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var putErr error
		stored, putErr = tx.PutChain(chain)
		return putErr
	})
	if err != nil {
		t.Fatalf("put chain: %v", err)
	}
	return stored
}

func TestPutChainAssignsIdentityAndTimestamps(t *testing.T) {
	store := newTestStore()
	stored := mustPutChain(t, store, Chain{Name: "cosmos", Kind: domain.ChainCosmos})
	if stored.ID == "" {
		t.Fatal("expected generated id")
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
	if !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("expected created == updated on insert, got %v vs %v", stored.CreatedAt, stored.UpdatedAt)
	}
}

func TestPutChainOverwriteReplacesAndPreservesCreatedAt(t *testing.T) {
	store := newTestStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.nowFn = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	stored := mustPutChain(t, store, Chain{Name: "cosmos", Kind: domain.ChainCosmos, ChannelIDs: []string{}})
	overwritten := mustPutChain(t, store, Chain{
		Base: domain.Base{ID: stored.ID},
		Name: "regen",
		Kind: domain.ChainCosmos,
	})

	if overwritten.Name != "regen" {
		t.Fatalf("expected full overwrite, got name %q", overwritten.Name)
	}
	if !overwritten.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("created_at changed on overwrite: %v vs %v", overwritten.CreatedAt, stored.CreatedAt)
	}
	if !overwritten.UpdatedAt.After(stored.UpdatedAt) {
		t.Fatalf("updated_at did not advance: %v vs %v", overwritten.UpdatedAt, stored.UpdatedAt)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore()
	stored := mustPutChain(t, store, Chain{Name: "cosmos", Kind: domain.ChainCosmos})

	for i := 0; i < 2; i++ {
		if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
			return tx.DeleteChain(stored.ID)
		}); err != nil {
			t.Fatalf("delete round %d: %v", i, err)
		}
	}
	if _, ok := store.GetChain(stored.ID); ok {
		t.Fatal("chain should be gone")
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteNode("missing")
	}); err != nil {
		t.Fatalf("delete of absent node should be a no-op: %v", err)
	}
}

func TestChainChildListsAreDerived(t *testing.T) {
	store := newTestStore()
	chain := mustPutChain(t, store, Chain{Name: "polkadot", Kind: domain.ChainSubstrate})

	var nodeID, systemID string
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		node, err := tx.PutNode(Node{ChainID: chain.ID, Name: "polkadot_node_1", Kind: domain.NodeSubstrate})
		if err != nil {
			return err
		}
		nodeID = node.ID
		system, err := tx.PutSystem(System{ChainID: chain.ID, Name: "polkadot_host_1", ExporterURL: "http://host:9100"})
		if err != nil {
			return err
		}
		systemID = system.ID
		return nil
	}); err != nil {
		t.Fatalf("seed children: %v", err)
	}

	got, ok := store.GetChain(chain.ID)
	if !ok {
		t.Fatal("chain not found")
	}
	if len(got.NodeIDs) != 1 || got.NodeIDs[0] != nodeID {
		t.Fatalf("node ids not derived: %v", got.NodeIDs)
	}
	if len(got.SystemIDs) != 1 || got.SystemIDs[0] != systemID {
		t.Fatalf("system ids not derived: %v", got.SystemIDs)
	}
}

func TestDeleteChainCascadesOverDependents(t *testing.T) {
	store := newTestStore()

	var chainID string
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		channel, err := tx.PutTelegramChannel(TelegramChannel{Name: "tg_main", BotToken: "token", ChatID: "-100"})
		if err != nil {
			return err
		}
		chain, err := tx.PutChain(Chain{
			Name:       "cosmos",
			Kind:       domain.ChainCosmos,
			ChannelIDs: []string{channel.ID},
		})
		if err != nil {
			return err
		}
		chainID = chain.ID
		if _, err := tx.PutNode(Node{ChainID: chain.ID, Name: "cosmos_node_1", Kind: domain.NodeCosmos}); err != nil {
			return err
		}
		if _, err := tx.PutGitHubRepo(GitHubRepo{ChainID: chain.ID, RepoName: "cosmos/gaia/", Monitor: true}); err != nil {
			return err
		}
		if _, err := tx.PutDockerHubRepo(DockerHubRepo{ChainID: chain.ID, RepoName: "simplyvc/panic", Monitor: true}); err != nil {
			return err
		}
		_, err = tx.PutAlertConfig(AlertConfig{ChainID: chain.ID, MetricName: "cannot_access_validator", Enabled: true})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteChain(chainID)
	}); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if got := store.ListNodes(); len(got) != 0 {
		t.Fatalf("orphan nodes remain: %v", got)
	}
	if got := store.ListGitHubRepos(); len(got) != 0 {
		t.Fatalf("orphan github repos remain: %v", got)
	}
	if got := store.ListDockerHubRepos(); len(got) != 0 {
		t.Fatalf("orphan dockerhub repos remain: %v", got)
	}
	if got := store.ListAlertConfigs(); len(got) != 0 {
		t.Fatalf("orphan alert configs remain: %v", got)
	}
	if got := store.ListTelegramChannels(); len(got) != 0 {
		t.Fatalf("routed channels should cascade: %v", got)
	}
}

func TestDeleteChannelDropsItFromChainRouting(t *testing.T) {
	store := newTestStore()

	var chainID, channelID string
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		channel, err := tx.PutSlackChannel(SlackChannel{Name: "slack_ops", BotToken: "xoxb", AppToken: "xapp", BotChannelID: "C1"})
		if err != nil {
			return err
		}
		channelID = channel.ID
		chain, err := tx.PutChain(Chain{Name: "kusama", Kind: domain.ChainSubstrate, ChannelIDs: []string{channel.ID}})
		if err != nil {
			return err
		}
		chainID = chain.ID
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteSlackChannel(channelID)
	}); err != nil {
		t.Fatalf("delete channel: %v", err)
	}

	got, ok := store.GetChain(chainID)
	if !ok {
		t.Fatal("chain not found")
	}
	if len(got.ChannelIDs) != 0 {
		t.Fatalf("chain still routes to deleted channel: %v", got.ChannelIDs)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore()
	chain := mustPutChain(t, store, Chain{Name: "chainlink", Kind: domain.ChainChainlink})
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		url := "https://prom:9090"
		_, err := tx.PutNode(Node{ChainID: chain.ID, Name: "chainlink_node_1", Kind: domain.NodeChainlink, PrometheusURL: &url})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snapshot := store.ExportState()

	restored := newTestStore()
	if err := restored.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(restored.ListChains()) != 1 {
		t.Fatalf("chains not restored: %v", restored.ListChains())
	}
	nodes := restored.ListNodes()
	if len(nodes) != 1 {
		t.Fatalf("nodes not restored: %v", nodes)
	}
	if nodes[0].PrometheusURL == nil || *nodes[0].PrometheusURL != "https://prom:9090" {
		t.Fatal("optional endpoint lost in round trip")
	}
}

func TestFullStateRoundTripAcrossAllTables(t *testing.T) {
	store := newTestStore()
	prom := "https://prom:9090"
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		chain, err := tx.PutChain(Chain{Name: "cosmos", Kind: domain.ChainCosmos})
		if err != nil {
			return err
		}
		if _, err := tx.PutNode(Node{ChainID: chain.ID, Name: "cosmos_node_1", Kind: domain.NodeCosmos, PrometheusURL: &prom, Monitor: true}); err != nil {
			return err
		}
		if _, err := tx.PutSystem(System{ChainID: chain.ID, Name: "cosmos_host_1", ExporterURL: "http://host:9100/metrics", Monitor: true}); err != nil {
			return err
		}
		if _, err := tx.PutGitHubRepo(GitHubRepo{ChainID: chain.ID, RepoName: "cosmos/gaia/", Monitor: true}); err != nil {
			return err
		}
		if _, err := tx.PutDockerHubRepo(DockerHubRepo{ChainID: chain.ID, RepoName: "cosmos/gaia", Monitor: true}); err != nil {
			return err
		}
		email, err := tx.PutEmailChannel(EmailChannel{Name: "ops-mail", SMTPServer: "smtp.example.org", Port: 587, EmailFrom: "panic@example.org", EmailsTo: []string{"ops@example.org"}})
		if err != nil {
			return err
		}
		telegram, err := tx.PutTelegramChannel(TelegramChannel{Name: "ops-telegram", BotToken: "123:abc", ChatID: "-100", Alerts: true})
		if err != nil {
			return err
		}
		twilio, err := tx.PutTwilioChannel(TwilioChannel{Name: "ops-calls", AccountSID: "AC1", AuthToken: "tok", TwilioPhoneNumber: "+100", PhoneNumbersToDial: []string{"+200"}})
		if err != nil {
			return err
		}
		slack, err := tx.PutSlackChannel(SlackChannel{Name: "ops-slack", BotToken: "xoxb", AppToken: "xapp", BotChannelID: "C1", Alerts: true})
		if err != nil {
			return err
		}
		pagerduty, err := tx.PutPagerDutyChannel(PagerDutyChannel{Name: "ops-pd", IntegrationKey: "key"})
		if err != nil {
			return err
		}
		opsgenie, err := tx.PutOpsGenieChannel(OpsGenieChannel{Name: "ops-og", APIToken: "tok", EU: true})
		if err != nil {
			return err
		}
		if _, err := tx.PutAlertConfig(AlertConfig{ChainID: chain.ID, MetricName: "cannot_access_validator", Enabled: true, Class: domain.ClassCritical}); err != nil {
			return err
		}
		if _, err := tx.PutUser(User{Username: "operator", PasswordHash: "x"}); err != nil {
			return err
		}
		chain.ChannelIDs = []string{email.ID, telegram.ID, twilio.ID, slack.ID, pagerduty.ID, opsgenie.ID}
		_, err = tx.PutChain(chain)
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	exported := store.ExportState()

	restored := newTestStore()
	if err := restored.ImportState(exported); err != nil {
		t.Fatalf("import: %v", err)
	}
	reexported := restored.ExportState()

	if !reflect.DeepEqual(exported, reexported) {
		t.Fatalf("state drifted across export/import:\nfirst:  %+v\nsecond: %+v", exported, reexported)
	}
}

func TestImportMigratesOrphansAndNilTables(t *testing.T) {
	store := newTestStore()
	err := store.ImportState(Snapshot{
		Chains: map[string]Chain{
			"c1": {Base: domain.Base{ID: "c1"}, Name: "cosmos", Kind: domain.ChainCosmos, ChannelIDs: []string{"missing-channel"}},
		},
		Nodes: map[string]Node{
			"n1": {Base: domain.Base{ID: "n1"}, ChainID: "c1", Name: "cosmos_node_1", Kind: domain.NodeCosmos},
			"n2": {Base: domain.Base{ID: "n2"}, ChainID: "ghost", Name: "orphan", Kind: domain.NodeCosmos},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	nodes := store.ListNodes()
	if len(nodes) != 1 || nodes[0].ID != "n1" {
		t.Fatalf("orphan node should be dropped: %v", nodes)
	}
	chain, ok := store.GetChain("c1")
	if !ok {
		t.Fatal("chain not imported")
	}
	if len(chain.ChannelIDs) != 0 {
		t.Fatalf("dangling channel reference survived import: %v", chain.ChannelIDs)
	}
	if len(chain.NodeIDs) != 1 || chain.NodeIDs[0] != "n1" {
		t.Fatalf("derived node ids not rebuilt: %v", chain.NodeIDs)
	}
	if store.ListUsers() == nil {
		t.Fatal("nil tables should import as empty, list must not panic")
	}
}

type blockEverything struct{}

func (blockEverything) Name() string { return "block_everything" }

func (blockEverything) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "block_everything",
			Severity: domain.SeverityBlock,
			Message:  "blocked",
		})
	}
	return res, nil
}

func TestBlockingViolationAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, putErr := tx.PutChain(Chain{Name: "cosmos", Kind: domain.ChainCosmos})
		return putErr
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if got := store.ListChains(); len(got) != 0 {
		t.Fatalf("blocked transaction must not commit: %v", got)
	}
}

func TestCallbackErrorRollsBack(t *testing.T) {
	store := newTestStore()
	sentinel := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, putErr := tx.PutChain(Chain{Name: "cosmos", Kind: domain.ChainCosmos}); putErr != nil {
			return putErr
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if got := store.ListChains(); len(got) != 0 {
		t.Fatalf("failed transaction must not commit: %v", got)
	}
}
