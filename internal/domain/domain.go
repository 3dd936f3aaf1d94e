// Package domain holds the shared resource types that flow through the
// deposit orchestrator's core: Submission, Deposit, Repository,
// RepositoryCopy, and the in-memory DepositSubmission projection built for
// packaging. These are plain structs; persistence and concurrency control
// live in the store and critical packages, keeping domain types free of
// any storage or transport concern.
package domain

// DepositStatus is the per-(Submission,Repository) transfer status. The
// zero value "" represents the dirty/null state: eligible for
// (re)processing.
type DepositStatus string

const (
	DepositStatusDirty     DepositStatus = ""
	DepositStatusSubmitted DepositStatus = "SUBMITTED"
	DepositStatusAccepted  DepositStatus = "ACCEPTED"
	DepositStatusRejected  DepositStatus = "REJECTED"
	DepositStatusFailed    DepositStatus = "FAILED"
)

// IsIntermediate reports whether s is dirty or SUBMITTED: not yet settled.
func (s DepositStatus) IsIntermediate() bool {
	return s == DepositStatusDirty || s == DepositStatusSubmitted
}

// IsTerminal reports whether s will never change without external
// intervention.
func (s DepositStatus) IsTerminal() bool {
	return s == DepositStatusAccepted || s == DepositStatusRejected || s == DepositStatusFailed
}

// SubmissionStatus is a submission's aggregated status across all of its
// child deposits.
type SubmissionStatus string

const (
	SubmissionStatusNotStarted SubmissionStatus = "NOT_STARTED"
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusAccepted   SubmissionStatus = "ACCEPTED"
	SubmissionStatusRejected   SubmissionStatus = "REJECTED"
	SubmissionStatusComplete   SubmissionStatus = "COMPLETE"
	SubmissionStatusCancelled  SubmissionStatus = "CANCELLED"
	SubmissionStatusFailed     SubmissionStatus = "FAILED"
)

// IsTerminal reports whether a submission in this status should never be
// re-opened by the aggregation updater.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusComplete || s == SubmissionStatusCancelled
}

// RepositoryCopyStatus tracks the lifecycle of an asserted remote copy.
type RepositoryCopyStatus string

const (
	RepositoryCopyStatusInProgress RepositoryCopyStatus = "IN_PROGRESS"
	RepositoryCopyStatusComplete   RepositoryCopyStatus = "COMPLETE"
	RepositoryCopyStatusRejected   RepositoryCopyStatus = "REJECTED"
	RepositoryCopyStatusStalled    RepositoryCopyStatus = "STALLED"
)

// IntegrationType describes how a repository participates in deposit.
// WEB_LINK repositories are skipped entirely by the submission processor.
type IntegrationType string

const (
	IntegrationTypeFull    IntegrationType = "FULL"
	IntegrationTypeOneWay  IntegrationType = "ONE_WAY"
	IntegrationTypeWebLink IntegrationType = "WEB_LINK"
)

// FileRole distinguishes a submission file's purpose within the package.
type FileRole string

const (
	FileRoleManuscript  FileRole = "manuscript"
	FileRoleSupplement  FileRole = "supplement"
	FileRoleSupportive  FileRole = "supportive"
	FileRoleTable       FileRole = "table"
	FileRoleFigure      FileRole = "figure"
)

// File is a single submission file descriptor.
type File struct {
	Name            string   `validate:"required"`
	ContentLocation string   `validate:"required,url"`
	Role            FileRole `validate:"omitempty"`
}

// Person is an author or contributor named in a submission's metadata.
type Person struct {
	FirstName string `validate:"omitempty"`
	LastName  string `validate:"omitempty"`
	Email     string `validate:"omitempty,email"`
	ORCID     string `validate:"omitempty"`
}

// Metadata is the structured article/journal/manuscript metadata attached
// to a Submission.
type Metadata struct {
	Title       string   `validate:"omitempty"`
	JournalName string   `validate:"omitempty"`
	ISSN        string   `validate:"omitempty"`
	DOI         string   `validate:"omitempty"`
	Abstract    string   `validate:"omitempty"`
	Authors     []Person `validate:"omitempty,dive"`
}

// Submission is a user's intent to deposit to N target repositories.
type Submission struct {
	ID               string
	Submitted        bool
	AggregatedStatus SubmissionStatus
	RepositoryIDs    []string
	Files            []File
	Metadata         Metadata
	Etag             string
}

// Deposit is one (Submission, Repository) tuple recording a transfer
// attempt.
type Deposit struct {
	ID               string
	SubmissionID     string
	RepositoryID     string
	Status           DepositStatus
	StatusRef        string
	ItemURL          string
	RepositoryCopyID string
	Etag             string
}

// RepositoryCopy is the artifact that allegedly exists in the target
// repository.
type RepositoryCopy struct {
	ID            string
	RepositoryID  string
	PublicationID string
	ExternalIDs   []string
	AccessURL     string
	CopyStatus    RepositoryCopyStatus
	Etag          string
}

// Repository is a deposit target, linked off-line to a RepositoryConfig by
// RepositoryKey.
type Repository struct {
	ID              string
	RepositoryKey   string
	Name            string
	IntegrationType IntegrationType
	Etag            string
}

// DepositSubmission is the core's in-memory, package-ready projection of a
// Submission: materialized file references, authors, and manifest metadata,
// produced by an external builder ahead of packaging. Not persisted.
type DepositSubmission struct {
	SubmissionID string   `validate:"omitempty"`
	Files        []File   `validate:"required,min=1,dive"`
	Authors      []Person `validate:"omitempty,dive"`
	Metadata     Metadata `validate:"omitempty"`
}

// Validate enforces the DepositSubmission invariant: at least one file, and
// every file has a non-empty content-location URL.
func (d DepositSubmission) Validate() error {
	if len(d.Files) == 0 {
		return errNoFiles
	}

	for _, f := range d.Files {
		if f.ContentLocation == "" {
			return errEmptyContentLocation
		}
	}

	return nil
}
