/*
Package mft holds application level constants and shared resources for the
mft change-point detection service.
*/
package mft

import (
	"time"
)

const (
	ShortDateFormat = "2006-01-02T15:04"

	QueueName = "mft.service"
)

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	AnalysisCollection = "analyses"

	DefaultDatabaseName  = "mft"
	DefaultSocketTimeout = time.Minute
)
