package handlers

import (
	"errors"
	"strconv"

	"github.com/adchat-ai/backend/internal/events"
	"github.com/adchat-ai/backend/internal/http/dto"
	"github.com/adchat-ai/backend/internal/repositories"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdHandler struct {
	viewAds   *services.ViewAdService
	publisher events.Publisher
	log       *zap.Logger
}

func NewAdHandler(viewAds *services.ViewAdService, publisher events.Publisher, log *zap.Logger) *AdHandler {
	return &AdHandler{viewAds: viewAds, publisher: publisher, log: log}
}

// ViewAd returns the ad payload and schedules the click charge in the
// background. The response never waits for the ledger.
func (h *AdHandler) ViewAd(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return respondError(c, fiber.StatusBadRequest, "invalid ad id")
	}

	ad, err := h.viewAds.GetAd(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrAdNotFound) {
			return respondError(c, fiber.StatusNotFound, "ad not found")
		}
		h.log.Error("get ad failed", zap.Int("ad_id", id), zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "internal error")
	}

	h.viewAds.ScheduleClickTracking(ad.ID)
	_ = h.publisher.Publish(c.Context(), events.StreamAds, events.Event{
		Type:    events.EventAdViewed,
		Payload: map[string]any{"ad_id": ad.ID},
	})

	return c.JSON(dto.ViewAdResponse{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Keywords:    ad.Keywords,
		URL:         ad.URL,
		ImageURL:    ad.ImageURL,
	})
}
