package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	Errors        []error
	Duration      time.Duration
}

// StoreEvalStart is emitted before a composed query expression is handed to
// the backing context for evaluation.
type StoreEvalStart struct {
	Query string // the named query being evaluated
}

// StoreEvalFinish is emitted after the backing context finishes evaluation.
type StoreEvalFinish struct {
	Query    string
	Rows     int
	Err      error
	Duration time.Duration
}
