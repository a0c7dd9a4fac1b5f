package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Service exposes the transactional configuration operations. Every
// mutation validates the submission against the current state, applies it
// inside one transaction, and commits only when no blocking rule fires.
type Service struct {
	store   PersistentStore
	logger  *zap.Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	nowFn   func() time.Time
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// PutChain validates and persists a chain, inserting or fully overwriting.
func (s *Service) PutChain(ctx context.Context, chain Chain) (Chain, Result, error) {
	var stored Chain
	var res Result
	err := s.instrument(ctx, "put_chain", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateChain(tx.Snapshot(), chain); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutChain(chain)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_chain", res.Changes)
	}
	return stored, res, err
}

// DeleteChain removes a chain and cascades over its dependents.
func (s *Service) DeleteChain(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_chain", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteChain(id)
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "delete_chain", res.Changes)
	}
	return res, err
}

// PutNode validates and persists a node.
func (s *Service) PutNode(ctx context.Context, node Node) (Node, Result, error) {
	var stored Node
	var res Result
	err := s.instrument(ctx, "put_node", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateNode(tx.Snapshot(), node); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutNode(node)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_node", res.Changes)
	}
	return stored, res, err
}

// DeleteNode removes a node.
func (s *Service) DeleteNode(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_node", func(tx Transaction) error {
		return tx.DeleteNode(id)
	})
}

// PutSystem validates and persists a system.
func (s *Service) PutSystem(ctx context.Context, system System) (System, Result, error) {
	var stored System
	var res Result
	err := s.instrument(ctx, "put_system", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateSystem(tx.Snapshot(), system); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutSystem(system)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_system", res.Changes)
	}
	return stored, res, err
}

// DeleteSystem removes a system.
func (s *Service) DeleteSystem(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_system", func(tx Transaction) error {
		return tx.DeleteSystem(id)
	})
}

// PutGitHubRepo validates and persists a GitHub repository.
func (s *Service) PutGitHubRepo(ctx context.Context, repo GitHubRepo) (GitHubRepo, Result, error) {
	var stored GitHubRepo
	var res Result
	err := s.instrument(ctx, "put_github_repo", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateGitHubRepo(tx.Snapshot(), repo); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutGitHubRepo(repo)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_github_repo", res.Changes)
	}
	return stored, res, err
}

// DeleteGitHubRepo removes a GitHub repository.
func (s *Service) DeleteGitHubRepo(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_github_repo", func(tx Transaction) error {
		return tx.DeleteGitHubRepo(id)
	})
}

// PutDockerHubRepo validates and persists a DockerHub repository.
func (s *Service) PutDockerHubRepo(ctx context.Context, repo DockerHubRepo) (DockerHubRepo, Result, error) {
	var stored DockerHubRepo
	var res Result
	err := s.instrument(ctx, "put_dockerhub_repo", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateDockerHubRepo(tx.Snapshot(), repo); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutDockerHubRepo(repo)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_dockerhub_repo", res.Changes)
	}
	return stored, res, err
}

// DeleteDockerHubRepo removes a DockerHub repository.
func (s *Service) DeleteDockerHubRepo(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_dockerhub_repo", func(tx Transaction) error {
		return tx.DeleteDockerHubRepo(id)
	})
}

// PutEmailChannel validates and persists an email channel.
func (s *Service) PutEmailChannel(ctx context.Context, channel EmailChannel) (EmailChannel, Result, error) {
	var stored EmailChannel
	var res Result
	err := s.instrument(ctx, "put_email_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateEmailChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutEmailChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_email_channel", res.Changes)
	}
	return stored, res, err
}

// DeleteEmailChannel removes an email channel.
func (s *Service) DeleteEmailChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_email_channel", func(tx Transaction) error {
		return tx.DeleteEmailChannel(id)
	})
}

// PutTelegramChannel validates and persists a Telegram channel.
func (s *Service) PutTelegramChannel(ctx context.Context, channel TelegramChannel) (TelegramChannel, Result, error) {
	var stored TelegramChannel
	var res Result
	err := s.instrument(ctx, "put_telegram_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateTelegramChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutTelegramChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_telegram_channel", res.Changes)
	}
	return stored, res, err
}

// DeleteTelegramChannel removes a Telegram channel.
func (s *Service) DeleteTelegramChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_telegram_channel", func(tx Transaction) error {
		return tx.DeleteTelegramChannel(id)
	})
}

// PutTwilioChannel validates and persists a Twilio channel.
func (s *Service) PutTwilioChannel(ctx context.Context, channel TwilioChannel) (TwilioChannel, Result, error) {
	var stored TwilioChannel
	var res Result
	err := s.instrument(ctx, "put_twilio_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateTwilioChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutTwilioChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_twilio_channel", res.Changes)
	}
	return stored, res, err
}

// DeleteTwilioChannel removes a Twilio channel.
func (s *Service) DeleteTwilioChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_twilio_channel", func(tx Transaction) error {
		return tx.DeleteTwilioChannel(id)
	})
}

// PutSlackChannel validates and persists a Slack channel.
func (s *Service) PutSlackChannel(ctx context.Context, channel SlackChannel) (SlackChannel, Result, error) {
	var stored SlackChannel
	var res Result
	err := s.instrument(ctx, "put_slack_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateSlackChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutSlackChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_slack_channel", res.Changes)
	}
	return stored, res, err
}

// DeleteSlackChannel removes a Slack channel.
func (s *Service) DeleteSlackChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_slack_channel", func(tx Transaction) error {
		return tx.DeleteSlackChannel(id)
	})
}

// PutPagerDutyChannel validates and persists a PagerDuty channel.
func (s *Service) PutPagerDutyChannel(ctx context.Context, channel PagerDutyChannel) (PagerDutyChannel, Result, error) {
	var stored PagerDutyChannel
	var res Result
	err := s.instrument(ctx, "put_pagerduty_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidatePagerDutyChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutPagerDutyChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_pagerduty_channel", res.Changes)
	}
	return stored, res, err
}

// DeletePagerDutyChannel removes a PagerDuty channel.
func (s *Service) DeletePagerDutyChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_pagerduty_channel", func(tx Transaction) error {
		return tx.DeletePagerDutyChannel(id)
	})
}

// PutOpsGenieChannel validates and persists an OpsGenie channel.
func (s *Service) PutOpsGenieChannel(ctx context.Context, channel OpsGenieChannel) (OpsGenieChannel, Result, error) {
	var stored OpsGenieChannel
	var res Result
	err := s.instrument(ctx, "put_opsgenie_channel", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateOpsGenieChannel(tx.Snapshot(), channel); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutOpsGenieChannel(channel)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_opsgenie_channel", res.Changes)
	}
	return stored, res, err
}

// DeleteOpsGenieChannel removes an OpsGenie channel.
func (s *Service) DeleteOpsGenieChannel(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_opsgenie_channel", func(tx Transaction) error {
		return tx.DeleteOpsGenieChannel(id)
	})
}

// PutAlertConfig validates and persists an alert threshold config.
func (s *Service) PutAlertConfig(ctx context.Context, cfg AlertConfig) (AlertConfig, Result, error) {
	var stored AlertConfig
	var res Result
	err := s.instrument(ctx, "put_alert_config", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateAlertConfig(tx.Snapshot(), cfg); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutAlertConfig(cfg)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_alert_config", res.Changes)
	}
	return stored, res, err
}

// DeleteAlertConfig removes an alert config.
func (s *Service) DeleteAlertConfig(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_alert_config", func(tx Transaction) error {
		return tx.DeleteAlertConfig(id)
	})
}

// PutUser validates and persists an operator account.
func (s *Service) PutUser(ctx context.Context, user User) (User, Result, error) {
	var stored User
	var res Result
	err := s.instrument(ctx, "put_user", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := ValidateUser(tx.Snapshot(), user); err != nil {
				return err
			}
			var putErr error
			stored, putErr = tx.PutUser(user)
			return putErr
		})
		return err
	})
	if err == nil {
		s.recordAudit(ctx, "put_user", res.Changes)
	}
	return stored, res, err
}

// DeleteUser removes an operator account.
func (s *Service) DeleteUser(ctx context.Context, id string) (Result, error) {
	return s.deleteOne(ctx, "delete_user", func(tx Transaction) error {
		return tx.DeleteUser(id)
	})
}

func (s *Service) deleteOne(ctx context.Context, operation string, fn func(Transaction) error) (Result, error) {
	var res Result
	err := s.instrument(ctx, operation, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, fn)
		return err
	})
	if err == nil {
		s.recordAudit(ctx, operation, res.Changes)
	}
	return res, err
}

// ExportState clones the full configuration state.
func (s *Service) ExportState(ctx context.Context) Snapshot {
	var snapshot Snapshot
	_ = s.instrument(ctx, "export_state", func(context.Context) error {
		snapshot = s.store.ExportState()
		return nil
	})
	return snapshot
}

// ImportState replaces the full configuration state atomically.
func (s *Service) ImportState(ctx context.Context, snapshot Snapshot) error {
	return s.instrument(ctx, "import_state", func(context.Context) error {
		return s.store.ImportState(snapshot)
	})
}
