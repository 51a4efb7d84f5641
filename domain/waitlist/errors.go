package waitlist

import "errors"

// ErrSuspectedBot marks a submission whose honeypot field was filled.
var ErrSuspectedBot = errors.New("waitlist: honeypot field was filled")

const (
	msgInvalidData         = "Invalid data"
	msgInvalidSubmission   = "Invalid submission"
	msgMalformedBody       = "Malformed JSON body"
	msgInternalServerError = "Internal server error"
	msgFailedToRead        = "Failed to read data"
	msgJoined              = "Successfully joined waitlist"
)
