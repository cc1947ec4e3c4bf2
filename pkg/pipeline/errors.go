package pipeline

import "errors"

var errBulkReelsTimedOut = errors.New("bulk reels job did not complete before the poll budget was exhausted")
