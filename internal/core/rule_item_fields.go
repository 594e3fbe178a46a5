package core

import (
	"context"
	"fmt"
	"strings"

	"heritagecore/pkg/domain"
)

// NewItemFieldsRule returns the rule blocking heritage items with an empty
// title, an unknown village or an unknown media type.
func NewItemFieldsRule() domain.Rule {
	return itemFieldsRule{}
}

type itemFieldsRule struct{}

func (itemFieldsRule) Name() string { return "item_fields" }

func (r itemFieldsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityHeritageItem || change.After == nil {
			continue
		}
		item := change.After
		block := func(msg string) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  msg,
				Entity:   domain.EntityHeritageItem,
				EntityID: item.ID,
			})
		}
		if strings.TrimSpace(item.Title) == "" {
			block("title is required")
		}
		if !domain.IsVillage(item.Village) {
			block(fmt.Sprintf("unknown village %q", item.Village))
		}
		if !item.Type.Valid() {
			block(fmt.Sprintf("unknown media type %q", item.Type))
		}
	}
	return res, nil
}
