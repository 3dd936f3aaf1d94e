// Package builder defines the external DepositSubmission builder
// collaborator: given a Submission, it materializes the package-ready
// projection (files, authors, manifest metadata) that DepositTask
// assembles into a package. Concrete construction from the metadata
// store's linked entities is out of scope for the core; the one
// implementation here, FromSubmissionFiles, projects the files already
// carried on the Submission.
package builder

import (
	"context"
	"fmt"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/validate"
)

// Builder projects a Submission into a DepositSubmission.
type Builder interface {
	Build(ctx context.Context, submission domain.Submission) (domain.DepositSubmission, error)
}

// FromSubmissionFiles is a minimal reference Builder: it projects the
// Submission's own Files and Metadata.Authors directly, with no additional
// linked-entity lookups. Good enough to drive the core end-to-end when the
// caller has already populated Submission.Files with resolvable content
// locations.
type FromSubmissionFiles struct{}

func (FromSubmissionFiles) Build(_ context.Context, submission domain.Submission) (domain.DepositSubmission, error) {
	ds := domain.DepositSubmission{
		SubmissionID: submission.ID,
		Files:        submission.Files,
		Authors:      submission.Metadata.Authors,
		Metadata:     submission.Metadata,
	}

	if err := validate.Struct(ds); err != nil {
		return domain.DepositSubmission{}, fmt.Errorf("builder: %w", err)
	}

	return ds, nil
}

var _ Builder = FromSubmissionFiles{}
