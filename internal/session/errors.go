package session

import (
	"errors"
	"fmt"

	"github.com/warpdl/parkdl/common"
)

var (
	ErrNoCookies  = errors.New("no cookies for destination")
	ErrNilSession = errors.New("nil session")
)

// Establishment stages, in the order they run.
const (
	StageLaunch   = "launch"
	StageNavigate = "navigate"
	StageCookies  = "cookies"
	StagePersist  = "persist"
	StageInternal = "internal"
)

// EstablishmentError records why obtaining credentials for a destination
// failed. It never reaches GetSession callers; it is kept as health data.
type EstablishmentError struct {
	Destination common.Destination
	Stage       string
	Err         error
}

func (e *EstablishmentError) Error() string {
	return fmt.Sprintf("establish %s session: %s: %v", e.Destination, e.Stage, e.Err)
}

func (e *EstablishmentError) Unwrap() error {
	return e.Err
}
