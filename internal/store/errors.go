package store

import "errors"

// Domain errors returned by store operations. Handlers match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not allowed for this marathon")
	ErrNameRequired    = errors.New("name required")
	ErrNameTaken       = errors.New("name already in use")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNoEquipment     = errors.New("equipment required")
	ErrUnknownKind     = errors.New("unknown ledger kind")
)
