package battleerrors

import "errors"

// Client-side sentinel errors. Shared by the api, store and game packages
// to avoid circular imports.
var (
	ErrNoSession        = errors.New("no session user loaded")
	ErrNoToken          = errors.New("no session token stored")
	ErrMissingField     = errors.New("username and word are required")
	ErrMalformedRef     = errors.New("malformed battle reference")
	ErrPlayerNotFound   = errors.New("current player not found on leaderboard")
	ErrStoreUnavailable = errors.New("token store is not open")
)
