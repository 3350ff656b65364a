package models

// IntentRequest describes a payment intent to be created on the processor.
// Metadata is echoed back by the processor and carries our transaction id
// for cross-system traceability.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Intent is the processor's handle for a created payment intent.
// ClientSecret is the continuation token the payer's client needs to
// complete authorization.
type Intent struct {
	ID           string
	ClientSecret string
}

// IntentState is the processor-reported state of an existing intent.
type IntentState struct {
	Status    ProcessorStatus
	LastError string
}
