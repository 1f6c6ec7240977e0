package executor

// GraphQLError is one error produced during request execution.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (e GraphQLError) Error() string { return e.Message }

// ExecutionResult is the outcome of executing one request document.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}
