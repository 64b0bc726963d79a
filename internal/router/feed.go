// Package router binds the user-facing queue/feed surface and the
// operator surface onto echo. Handlers return typed errors and let the
// global error handler map them to status codes.
package router

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
	"github.com/auricast/auricast/internal/ledger"
	"github.com/auricast/auricast/internal/scheduler"
	"github.com/auricast/auricast/internal/storage"
	"github.com/auricast/auricast/pkg/pagination"
)

type FeedRouter struct {
	e         *echo.Echo
	scheduler *scheduler.Scheduler
	ledger    *ledger.Ledger
	jobs      storage.JobStore
}

func NewFeedRouter(e *echo.Echo, sched *scheduler.Scheduler, led *ledger.Ledger, jobs storage.JobStore) *FeedRouter {
	return &FeedRouter{
		e:         e,
		scheduler: sched,
		ledger:    led,
		jobs:      jobs,
	}
}

func (r *FeedRouter) Bind() {
	users := r.e.Group("/v1/users/:userId")
	users.GET("/queue", r.listQueue)
	users.GET("/feed", r.listFeed)
	users.POST("/feed/populate", r.populateFeed)
	users.POST("/queue", r.queue)
	users.DELETE("/queue/:contentId", r.unqueue)
	users.POST("/items/:itemId/reorder", r.reorder)
	users.POST("/items/:itemId/archive", r.archive)
	users.POST("/interactions", r.recordInteraction)

	r.e.GET("/admin/jobs/dead", r.listDeadLettered)
}

func (r *FeedRouter) listQueue(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	items, err := r.scheduler.ListQueue(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (r *FeedRouter) listFeed(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req pagination.CursorRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid pagination parameters", err)
	}

	page, err := r.scheduler.ListFeed(c.Request().Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

type populateRequest struct {
	Count int `json:"count"`
}

func (r *FeedRouter) populateFeed(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	req := populateRequest{Count: 10}
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}

	items, err := r.scheduler.PopulateFeed(c.Request().Context(), userID, req.Count)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.FeedItem{}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

type queueRequest struct {
	ContentID uuid.UUID `json:"content_id"`
}

func (r *FeedRouter) queue(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req queueRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if req.ContentID == uuid.Nil {
		return apperr.NewValidation("content_id is required")
	}

	item, err := r.scheduler.Queue(c.Request().Context(), userID, req.ContentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (r *FeedRouter) unqueue(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}
	contentID, err := pathUUID(c, "contentId")
	if err != nil {
		return err
	}

	item, err := r.scheduler.Unqueue(c.Request().Context(), userID, contentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (r *FeedRouter) reorder(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return err
	}

	var anchor scheduler.Anchor
	if err := c.Bind(&anchor); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}

	item, err := r.scheduler.Reorder(c.Request().Context(), userID, itemID, anchor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (r *FeedRouter) archive(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return err
	}

	item, err := r.scheduler.Archive(c.Request().Context(), userID, itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

type interactionRequest struct {
	ContentID uuid.UUID `json:"content_id"`
	Type      string    `json:"type"`
}

func (r *FeedRouter) recordInteraction(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req interactionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}

	interaction, err := r.ledger.Record(c.Request().Context(), userID, req.ContentID, domain.InteractionType(req.Type))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interaction)
}

func (r *FeedRouter) listDeadLettered(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperr.NewValidation("limit must be a positive number")
		}
		limit = parsed
	}

	jobs, err := r.jobs.ListDeadLettered(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []domain.ProcessingJob{}
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": jobs})
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.NewValidation(name + " must be a valid uuid")
	}
	return id, nil
}
