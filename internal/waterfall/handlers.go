package waterfall

import (
	"context"
	"errors"

	"github.com/shaiso/Cascade/internal/mq"
)

// handleTenderResponse обрабатывает ответ перевозчика из очереди
// tenders.responses (публикуется порталом/EDI-коллаборатором).
func (e *Engine) handleTenderResponse(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.TenderResponsePayload](&delivery.Message)
	if err != nil {
		e.logger.Error("failed to parse tender.response payload", "error", err)
		return err
	}

	e.logger.Debug("received tender.response event",
		"step_id", payload.StepID,
		"response", payload.Response,
	)

	_, err = e.RespondToStep(ctx, payload.StepID, payload.Response, payload.CounterRate, payload.Notes)
	if err != nil {
		// Некорректный или устаревший ответ — отбрасываем без requeue:
		// повторная доставка его не исправит.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrInvalidRate) {
			e.logger.Warn("tender response not applicable",
				"step_id", payload.StepID,
				"response", payload.Response,
				"reason", err,
			)
			return nil
		}
		e.logger.Error("failed to apply tender response",
			"step_id", payload.StepID,
			"error", err,
		)
		return err
	}

	return nil
}
