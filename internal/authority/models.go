package authority

// Identity describes the principal reported by the external authority
// on a successful session check. Fields the authority omits stay empty.
type Identity struct {
	UserID  string `json:"user_id"`
	Account string `json:"account"`
	RoleARN string `json:"role_arn"`
}

// FailureKind tags why a check did not produce a valid identity. The
// distinction is logged for diagnostics but never drives policy: every
// kind collapses to an unauthenticated status.
type FailureKind string

const (
	FailureNone   FailureKind = ""
	FailureLaunch FailureKind = "launch" // external process could not start
	FailureExit   FailureKind = "exit"   // process ran and reported failure
	FailureParse  FailureKind = "parse"  // success exit but unusable identity payload
)

// Outcome is the immediate result of one check invocation, before
// policy interpretation.
type Outcome struct {
	Authenticated bool
	Identity      *Identity
	Failure       FailureKind
	Detail        string // short diagnostic, log-only
}

// SuccessOutcome builds an authenticated outcome carrying the identity.
func SuccessOutcome(id Identity) Outcome {
	return Outcome{Authenticated: true, Identity: &id}
}

// FailureOutcome builds an unauthenticated outcome tagged with its cause.
func FailureOutcome(kind FailureKind, detail string) Outcome {
	return Outcome{Authenticated: false, Failure: kind, Detail: detail}
}
