package core

import (
	"context"
	"fmt"
	"strings"

	"heritagecore/pkg/domain"
)

// NewDuplicateTitleRule returns the rule warning when a village already holds
// an item with the same title.
func NewDuplicateTitleRule() domain.Rule {
	return duplicateTitleRule{}
}

type duplicateTitleRule struct{}

func (duplicateTitleRule) Name() string { return "duplicate_title" }

func (r duplicateTitleRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityHeritageItem || change.After == nil {
			continue
		}
		after := change.After
		title := strings.TrimSpace(after.Title)
		if title == "" {
			continue
		}
		for _, existing := range view.ListItems() {
			if existing.ID == after.ID || existing.Village != after.Village {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(existing.Title), title) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("%s already has an item titled %q (%s)", after.Village, title, existing.ID),
					Entity:   domain.EntityHeritageItem,
					EntityID: after.ID,
				})
				break
			}
		}
	}
	return res, nil
}
