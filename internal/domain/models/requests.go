package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency
// and reuse.

type SignalRequest struct {
	Pair string `query:"pair" json:"pair" validate:"required"`
	TF   string `query:"tf" json:"tf" default:"5m" validate:"oneof=1m 3m 5m"`
}

type SignalsRequest struct {
	Since string `query:"since" json:"since"`
	Limit int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=5000"`
}

type EvaluateRequest struct {
	ID int64 `param:"id" json:"id" validate:"required,gt=0"`
}
