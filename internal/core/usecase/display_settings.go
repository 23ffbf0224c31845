package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const settingsChangedMessage = "Display settings changed"

// Settings lists every displayable field with its effective label and
// visibility. A field the court never configured is visible under its default
// label.
func (uc *DisplayUseCase) Settings(ctx context.Context, actor domain.Actor) ([]domain.DisplayField, error) {
	if err := requireCourt(actor, "display settings"); err != nil {
		return nil, err
	}
	stored, err := uc.settings.ListSettings(ctx, actor.CourtID)
	if err != nil {
		return nil, err
	}
	return resolveSettings(stored), nil
}

// UpdateSettings replaces the court's board configuration. Listed fields take
// the given visibility, every other field is hidden. A blank label keeps the
// current one.
func (uc *DisplayUseCase) UpdateSettings(ctx context.Context, actor domain.Actor, fields []domain.DisplayField) ([]domain.DisplayField, error) {
	const op = "update display settings"
	if err := requireCourt(actor, op); err != nil {
		return nil, err
	}

	given := make(map[string]domain.DisplayField, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if !domain.IsDisplayField(name) {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown display field %q", f.Name))
		}
		if _, dup := given[name]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("display field %q listed more than once", name))
		}
		label := strings.TrimSpace(f.Label)
		if utf8.RuneCountInString(label) > domain.MaxDisplayLabelLen {
			return nil, domain.WrapError(domain.ErrInvalidInput, op,
				fmt.Errorf("label of %q exceeds %d characters", name, domain.MaxDisplayLabelLen))
		}
		given[name] = domain.DisplayField{Name: name, Label: label, Visible: f.Visible}
	}

	stored, err := uc.settings.ListSettings(ctx, actor.CourtID)
	if err != nil {
		return nil, err
	}
	next := resolveSettings(stored)
	for i := range next {
		g, ok := given[next[i].Name]
		next[i].Visible = ok && g.Visible
		if ok && g.Label != "" {
			next[i].Label = g.Label
		}
	}

	if err := uc.settings.SaveSettings(ctx, actor.CourtID, next); err != nil {
		return nil, err
	}
	uc.notifier.Notify(domain.DisplayUpdate{UpdateType: domain.DisplayUpdateSettings, CourtID: actor.CourtID, Message: settingsChangedMessage})
	return next, nil
}

func resolveSettings(stored []domain.DisplayField) []domain.DisplayField {
	byName := fieldsByName(stored)
	out := make([]domain.DisplayField, 0, len(domain.DisplayFieldNames))
	for _, name := range domain.DisplayFieldNames {
		f := domain.DisplayField{Name: name, Label: domain.DefaultFieldLabels[name], Visible: true}
		if s, ok := byName[name]; ok {
			f.Visible = s.Visible
			if s.Label != "" {
				f.Label = s.Label
			}
		}
		out = append(out, f)
	}
	return out
}

// boardFields picks the visible columns in settings order. With nothing
// visible the default board layout applies.
func boardFields(stored []domain.DisplayField) ([]string, map[string]string) {
	byName := fieldsByName(stored)
	visible := make([]string, 0, len(domain.DisplayFieldNames))
	labels := make(map[string]string)
	for _, name := range domain.DisplayFieldNames {
		s, ok := byName[name]
		if !ok || !s.Visible {
			continue
		}
		visible = append(visible, name)
		labels[name] = s.Label
		if s.Label == "" {
			labels[name] = titleField(name)
		}
	}
	if len(visible) > 0 {
		return visible, labels
	}

	for _, f := range domain.DefaultBoardFields {
		visible = append(visible, f.Name)
		labels[f.Name] = f.Label
	}
	return visible, labels
}

func fieldsByName(fields []domain.DisplayField) map[string]domain.DisplayField {
	out := make(map[string]domain.DisplayField, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}

// titleField renders "next_session_date" as "Next Session Date".
func titleField(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
