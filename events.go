package cloudsdk

import "github.com/manishiitg/cloud-sdk-go/interfaces"

// Fixture tool operation types - constants for operation names
const (
	OperationList    = "list"
	OperationVerify  = "verify"
	OperationCompare = "compare"
)

// Step status values, re-exported from the interfaces package
const (
	StatusStepReplayed = interfaces.StatusStepReplayed
	StatusStepRecorded = interfaces.StatusStepRecorded
	StatusStepMismatch = interfaces.StatusStepMismatch
)
