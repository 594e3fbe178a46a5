package core

import "heritagecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Session            = domain.Session
	HeritageItem       = domain.HeritageItem
	CommunityMessage   = domain.CommunityMessage
	Ancestor           = domain.Ancestor
	LineageRecord      = domain.LineageRecord
	RelationKey        = domain.RelationKey
	MediaType          = domain.MediaType
	Tab                = domain.Tab
	Outcome            = domain.Outcome
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	KeyValueStore      = domain.KeyValueStore
)

const (
	EntityHeritageItem = domain.EntityHeritageItem
	EntitySession      = domain.EntitySession
	EntityAncestor     = domain.EntityAncestor
	EntityMessage      = domain.EntityMessage
	EntityMedia        = domain.EntityMedia
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
