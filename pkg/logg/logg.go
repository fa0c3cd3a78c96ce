package logg

// Field keys shared by every component logger.
const (
	Layer     = "layer"
	Operation = "op"
	URL       = "url"
	Selector  = "selector"
	Trigger   = "trigger"
	Stage     = "stage"
	Attempt   = "attempt"
	Category  = "category"
	RunID     = "run_id"
	Status    = "status"
)
