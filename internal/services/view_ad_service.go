package services

import (
	"context"
	"errors"

	"github.com/adchat-ai/backend/internal/background"
	"github.com/adchat-ai/backend/internal/events"
	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/repositories"
	"go.uber.org/zap"
)

// AdGetter is implemented by repositories.AdRepo.
type AdGetter interface {
	GetByID(ctx context.Context, id int) (*models.Ad, error)
}

// ClickTracker is implemented by repositories.ClickLedgerRepo.
type ClickTracker interface {
	TrackAdClick(ctx context.Context, adID int) ([]models.AdCampaignLink, error)
}

// ViewAdService serves ad payloads and schedules the click/spend bookkeeping
// to run after the response has been sent.
type ViewAdService struct {
	ads        AdGetter
	ledger     ClickTracker
	dispatcher *background.Dispatcher
	publisher  events.Publisher
	log        *zap.Logger
}

func NewViewAdService(ads AdGetter, ledger ClickTracker, dispatcher *background.Dispatcher, publisher events.Publisher, log *zap.Logger) *ViewAdService {
	return &ViewAdService{
		ads:        ads,
		ledger:     ledger,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log,
	}
}

func (s *ViewAdService) GetAd(ctx context.Context, id int) (*models.Ad, error) {
	return s.ads.GetByID(ctx, id)
}

// ScheduleClickTracking enqueues the ledger update for the viewed ad. Best
// effort: a full queue or a failing ledger never reaches the caller, whose
// response is already on the wire.
func (s *ViewAdService) ScheduleClickTracking(adID int) {
	s.dispatcher.Enqueue(background.Task{
		Name: "track_ad_click",
		Run: func(ctx context.Context) error {
			links, err := s.ledger.TrackAdClick(ctx, adID)
			if errors.Is(err, repositories.ErrAdNotFound) {
				// Ad deleted between view and click processing.
				s.log.Info("click tracking skipped, ad gone", zap.Int("ad_id", adID))
				return nil
			}
			if err != nil {
				return err
			}

			campaignIDs := make([]int, 0, len(links))
			for _, link := range links {
				campaignIDs = append(campaignIDs, link.CampaignID)
			}
			s.log.Info("ad click tracked",
				zap.Int("ad_id", adID),
				zap.Int("campaigns_charged", len(links)),
				zap.Ints("campaign_ids", campaignIDs))
			_ = s.publisher.Publish(ctx, events.StreamAds, events.Event{
				Type: events.EventAdClickTracked,
				Payload: map[string]any{
					"ad_id":             adID,
					"campaigns_charged": len(links),
					"campaign_ids":      campaignIDs,
				},
			})
			return nil
		},
	})
}
