package core

// NewDefaultRulesEngine builds a rules engine with the built-in authoring policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewItemFieldsRule())
	engine.Register(NewDuplicateTitleRule())
	return engine
}
