package consentstate

import "time"

// State tracks an in-flight consent redirect so the callback can verify the
// state parameter round-tripped through the provider.
type State struct {
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, consentState *State) error
	Get(state string) (*State, error)
	Delete(state string) error
}
