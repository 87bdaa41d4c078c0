package cloudsdk

import (
	"github.com/manishiitg/cloud-sdk-go/interfaces"
	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	"github.com/manishiitg/cloud-sdk-go/pkg/pipeline"
)

// Re-export types from the recorder and pipeline packages for convenience
type Request = recorder.Request
type Response = recorder.Response
type Body = recorder.Body
type Method = recorder.Method
type Transaction = recorder.Transaction
type Matcher = recorder.Matcher
type MismatchError = recorder.MismatchError
type MismatchKind = recorder.MismatchKind
type ParseError = recorder.ParseError
type Policy = pipeline.Policy
type PolicyFunc = pipeline.PolicyFunc
type Logger = interfaces.Logger
type EventEmitter = interfaces.EventEmitter
type StepEvent = interfaces.StepEvent

// Re-export errors
var (
	ErrMockFramework   = recorder.ErrMockFramework
	ErrFixtureNotFound = recorder.ErrFixtureNotFound
	ErrStreamingBody   = recorder.ErrStreamingBody
)

// Re-export constants
const (
	MismatchURI           = recorder.MismatchURI
	MismatchMissingHeader = recorder.MismatchMissingHeader
	MismatchExtraHeader   = recorder.MismatchExtraHeader
	MismatchHeaderValue   = recorder.MismatchHeaderValue
	MismatchMethod        = recorder.MismatchMethod
	MismatchBody          = recorder.MismatchBody
)

// Re-export functions
var (
	NewMatcher          = recorder.NewMatcher
	NewTransaction      = recorder.NewTransaction
	WithTransactionName = recorder.WithTransactionName
)
