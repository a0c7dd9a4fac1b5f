package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"panicconf/pkg/domain"
)

// entityAPI bundles the service and store accessors one entity kind
// needs for its CRUD routes.
type entityAPI[T any] struct {
	list  func() []T
	find  func(ctx context.Context, id string) (T, bool)
	put   func(ctx context.Context, e T) (T, domain.Result, error)
	del   func(ctx context.Context, id string) (domain.Result, error)
	setID func(e *T, id string)
}

// registerEntity wires the standard route set for one entity kind.
// POST always creates (the store assigns the id), PUT inserts or fully
// overwrites the record at the path id, DELETE is idempotent.
func registerEntity[T any](rg *gin.RouterGroup, path string, e entityAPI[T]) {
	g := rg.Group(path)

	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": e.list()})
	})

	g.GET("/:id", func(c *gin.Context) {
		entity, ok := e.find(c.Request.Context(), c.Param("id"))
		if !ok {
			respondNotFound(c)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entity})
	})

	g.POST("", func(c *gin.Context) {
		var body T
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBadRequest(c, err)
			return
		}
		e.setID(&body, "")
		saved, result, err := e.put(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": saved, "warnings": warnings(result)})
	})

	g.PUT("/:id", func(c *gin.Context) {
		var body T
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBadRequest(c, err)
			return
		}
		e.setID(&body, c.Param("id"))
		saved, result, err := e.put(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": saved, "warnings": warnings(result)})
	})

	g.DELETE("/:id", func(c *gin.Context) {
		if _, err := e.del(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) registerEntityRoutes(v1 *gin.RouterGroup) {
	store := s.service.Store()

	registerEntity(v1, "/chains", entityAPI[domain.Chain]{
		list:  store.ListChains,
		find:  func(_ context.Context, id string) (domain.Chain, bool) { return store.GetChain(id) },
		put:   s.service.PutChain,
		del:   s.service.DeleteChain,
		setID: func(e *domain.Chain, id string) { e.ID = id },
	})

	registerEntity(v1, "/nodes", entityAPI[domain.Node]{
		list:  store.ListNodes,
		find:  func(_ context.Context, id string) (domain.Node, bool) { return store.GetNode(id) },
		put:   s.service.PutNode,
		del:   s.service.DeleteNode,
		setID: func(e *domain.Node, id string) { e.ID = id },
	})

	registerEntity(v1, "/systems", entityAPI[domain.System]{
		list:  store.ListSystems,
		find:  func(_ context.Context, id string) (domain.System, bool) { return store.GetSystem(id) },
		put:   s.service.PutSystem,
		del:   s.service.DeleteSystem,
		setID: func(e *domain.System, id string) { e.ID = id },
	})

	registerEntity(v1, "/github-repos", entityAPI[domain.GitHubRepo]{
		list:  store.ListGitHubRepos,
		find:  func(ctx context.Context, id string) (domain.GitHubRepo, bool) {
			return viewFind(ctx, store, func(v domain.TransactionView) (domain.GitHubRepo, bool) {
				return v.FindGitHubRepo(id)
			})
		},
		put:   s.service.PutGitHubRepo,
		del:   s.service.DeleteGitHubRepo,
		setID: func(e *domain.GitHubRepo, id string) { e.ID = id },
	})

	registerEntity(v1, "/dockerhub-repos", entityAPI[domain.DockerHubRepo]{
		list:  store.ListDockerHubRepos,
		find:  func(ctx context.Context, id string) (domain.DockerHubRepo, bool) {
			return viewFind(ctx, store, func(v domain.TransactionView) (domain.DockerHubRepo, bool) {
				return v.FindDockerHubRepo(id)
			})
		},
		put:   s.service.PutDockerHubRepo,
		del:   s.service.DeleteDockerHubRepo,
		setID: func(e *domain.DockerHubRepo, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/email", entityAPI[domain.EmailChannel]{
		list:  store.ListEmailChannels,
		find:  func(_ context.Context, id string) (domain.EmailChannel, bool) {
			return findByID(store.ListEmailChannels(), id, func(e domain.EmailChannel) string { return e.ID })
		},
		put:   s.service.PutEmailChannel,
		del:   s.service.DeleteEmailChannel,
		setID: func(e *domain.EmailChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/telegram", entityAPI[domain.TelegramChannel]{
		list:  store.ListTelegramChannels,
		find:  func(_ context.Context, id string) (domain.TelegramChannel, bool) {
			return findByID(store.ListTelegramChannels(), id, func(e domain.TelegramChannel) string { return e.ID })
		},
		put:   s.service.PutTelegramChannel,
		del:   s.service.DeleteTelegramChannel,
		setID: func(e *domain.TelegramChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/twilio", entityAPI[domain.TwilioChannel]{
		list:  store.ListTwilioChannels,
		find:  func(_ context.Context, id string) (domain.TwilioChannel, bool) {
			return findByID(store.ListTwilioChannels(), id, func(e domain.TwilioChannel) string { return e.ID })
		},
		put:   s.service.PutTwilioChannel,
		del:   s.service.DeleteTwilioChannel,
		setID: func(e *domain.TwilioChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/slack", entityAPI[domain.SlackChannel]{
		list:  store.ListSlackChannels,
		find:  func(_ context.Context, id string) (domain.SlackChannel, bool) {
			return findByID(store.ListSlackChannels(), id, func(e domain.SlackChannel) string { return e.ID })
		},
		put:   s.service.PutSlackChannel,
		del:   s.service.DeleteSlackChannel,
		setID: func(e *domain.SlackChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/pagerduty", entityAPI[domain.PagerDutyChannel]{
		list:  store.ListPagerDutyChannels,
		find:  func(_ context.Context, id string) (domain.PagerDutyChannel, bool) {
			return findByID(store.ListPagerDutyChannels(), id, func(e domain.PagerDutyChannel) string { return e.ID })
		},
		put:   s.service.PutPagerDutyChannel,
		del:   s.service.DeletePagerDutyChannel,
		setID: func(e *domain.PagerDutyChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/channels/opsgenie", entityAPI[domain.OpsGenieChannel]{
		list:  store.ListOpsGenieChannels,
		find:  func(_ context.Context, id string) (domain.OpsGenieChannel, bool) {
			return findByID(store.ListOpsGenieChannels(), id, func(e domain.OpsGenieChannel) string { return e.ID })
		},
		put:   s.service.PutOpsGenieChannel,
		del:   s.service.DeleteOpsGenieChannel,
		setID: func(e *domain.OpsGenieChannel, id string) { e.ID = id },
	})

	registerEntity(v1, "/alert-configs", entityAPI[domain.AlertConfig]{
		list:  store.ListAlertConfigs,
		find:  func(ctx context.Context, id string) (domain.AlertConfig, bool) {
			return viewFind(ctx, store, func(v domain.TransactionView) (domain.AlertConfig, bool) {
				return v.FindAlertConfig(id)
			})
		},
		put:   s.service.PutAlertConfig,
		del:   s.service.DeleteAlertConfig,
		setID: func(e *domain.AlertConfig, id string) { e.ID = id },
	})

	registerEntity(v1, "/users", entityAPI[domain.User]{
		list:  store.ListUsers,
		find:  func(ctx context.Context, id string) (domain.User, bool) {
			return viewFind(ctx, store, func(v domain.TransactionView) (domain.User, bool) {
				return v.FindUser(id)
			})
		},
		put:   s.service.PutUser,
		del:   s.service.DeleteUser,
		setID: func(e *domain.User, id string) { e.ID = id },
	})
}

// viewFind runs a single lookup inside a read view.
func viewFind[T any](ctx context.Context, store domain.PersistentStore, fn func(domain.TransactionView) (T, bool)) (T, bool) {
	var (
		entity T
		ok     bool
	)
	_ = store.View(ctx, func(v domain.TransactionView) error {
		entity, ok = fn(v)
		return nil
	})
	return entity, ok
}

func findByID[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, item := range items {
		if idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
