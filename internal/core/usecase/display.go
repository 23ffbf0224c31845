package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

const orderChangedMessage = "Display order changed"

type DisplayUseCase struct {
	display  ports.DisplayRepository
	settings ports.DisplaySettingsRepository
	courts   ports.CourtRepository
	notifier ports.DisplayNotifier
}

func NewDisplayUseCase(
	display ports.DisplayRepository,
	settings ports.DisplaySettingsRepository,
	courts ports.CourtRepository,
	notifier ports.DisplayNotifier,
) *DisplayUseCase {
	return &DisplayUseCase{
		display:  display,
		settings: settings,
		courts:   courts,
		notifier: notifier,
	}
}

func requireCourt(actor domain.Actor, op string) error {
	if !actor.HasCourt() {
		return domain.WrapError(domain.ErrForbidden, op, errors.New("no court assigned to your account"))
	}
	return nil
}

// Add appends the case to the court's display list and publishes "add" once stored.
func (uc *DisplayUseCase) Add(ctx context.Context, actor domain.Actor, caseID int64) (*domain.DisplayEntry, error) {
	if err := requireCourt(actor, "add display entry"); err != nil {
		return nil, err
	}
	entry, err := uc.display.AddEntry(ctx, actor.CourtID, caseID)
	if err != nil {
		return nil, err
	}
	uc.notifier.Notify(domain.DisplayUpdate{UpdateType: domain.DisplayUpdateAdd, CourtID: actor.CourtID, CaseID: caseID})
	return entry, nil
}

func (uc *DisplayUseCase) Remove(ctx context.Context, actor domain.Actor, caseID int64) error {
	if err := requireCourt(actor, "remove display entry"); err != nil {
		return err
	}
	if err := uc.display.RemoveEntry(ctx, actor.CourtID, caseID); err != nil {
		return err
	}
	uc.notifier.Notify(domain.DisplayUpdate{UpdateType: domain.DisplayUpdateRemove, CourtID: actor.CourtID, CaseID: caseID})
	return nil
}

// Reorder sets manual order values. A blank value clears the custom order;
// values that are not integers >= 1 are reported and skipped.
func (uc *DisplayUseCase) Reorder(ctx context.Context, actor domain.Actor, orders []domain.OrderInput) (*domain.ReorderResult, error) {
	if err := requireCourt(actor, "reorder display"); err != nil {
		return nil, err
	}

	result := &domain.ReorderResult{Warnings: []string{}}
	values := make(map[int64]*int, len(orders))
	for _, in := range orders {
		raw := strings.TrimSpace(in.Value)
		if raw == "" {
			values[in.CaseID] = nil
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("invalid order value %q for case %d, must be 1 or greater", raw, in.CaseID))
			continue
		}
		values[in.CaseID] = &n
	}
	return uc.apply(ctx, actor, values, result)
}

// ReorderSequence assigns custom orders 1..n following the given case order.
func (uc *DisplayUseCase) ReorderSequence(ctx context.Context, actor domain.Actor, caseIDs []int64) (*domain.ReorderResult, error) {
	if err := requireCourt(actor, "reorder display"); err != nil {
		return nil, err
	}

	result := &domain.ReorderResult{Warnings: []string{}}
	values := make(map[int64]*int, len(caseIDs))
	for i, id := range caseIDs {
		if _, dup := values[id]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("case %d listed more than once, keeping first position", id))
			continue
		}
		pos := i + 1
		values[id] = &pos
	}
	return uc.apply(ctx, actor, values, result)
}

func (uc *DisplayUseCase) apply(ctx context.Context, actor domain.Actor, values map[int64]*int, result *domain.ReorderResult) (*domain.ReorderResult, error) {
	if len(values) == 0 {
		return result, nil
	}
	updated, err := uc.display.SetCustomOrders(ctx, actor.CourtID, values)
	if err != nil {
		return nil, err
	}
	result.Updated = updated
	if updated > 0 {
		uc.notifier.Notify(domain.DisplayUpdate{UpdateType: domain.DisplayUpdateOrder, CourtID: actor.CourtID, Message: orderChangedMessage})
	}
	return result, nil
}

func (uc *DisplayUseCase) List(ctx context.Context, actor domain.Actor) ([]domain.DisplayEntry, error) {
	if err := requireCourt(actor, "list display"); err != nil {
		return nil, err
	}
	return uc.display.ListEntries(ctx, actor.CourtID)
}

// Board is the public screen. An unknown or zero court falls back to the first
// active court. Columns follow the court's display settings.
func (uc *DisplayUseCase) Board(ctx context.Context, courtID int64) (*domain.Board, error) {
	var court *domain.Court
	if courtID > 0 {
		c, err := uc.courts.GetCourt(ctx, courtID)
		switch {
		case err == nil:
			court = c
		case !domain.IsKind(err, domain.ErrCourtNotFound):
			return nil, err
		}
	}
	if court == nil {
		c, err := uc.courts.FirstActiveCourt(ctx)
		if err != nil {
			return nil, err
		}
		court = c
	}

	entries, err := uc.display.ListEntries(ctx, court.ID)
	if err != nil {
		return nil, err
	}
	cases := make([]domain.Case, 0, len(entries))
	for _, e := range entries {
		cases = append(cases, e.Case)
	}
	stored, err := uc.settings.ListSettings(ctx, court.ID)
	if err != nil {
		return nil, err
	}
	visible, labels := boardFields(stored)
	return &domain.Board{Court: *court, Cases: cases, VisibleFields: visible, FieldLabels: labels}, nil
}
