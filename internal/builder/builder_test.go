package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
)

func TestFromSubmissionFiles_Build_ProjectsFilesAndAuthors(t *testing.T) {
	t.Parallel()

	sub := domain.Submission{
		ID: "s1",
		Files: []domain.File{
			{Name: "a.pdf", ContentLocation: "http://x/a.pdf", Role: domain.FileRoleManuscript},
		},
		Metadata: domain.Metadata{
			Title:   "A Paper",
			Authors: []domain.Person{{FirstName: "Ada", LastName: "Lovelace"}},
		},
	}

	ds, err := FromSubmissionFiles{}.Build(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "s1", ds.SubmissionID)
	assert.Equal(t, sub.Files, ds.Files)
	assert.Equal(t, sub.Metadata.Authors, ds.Authors)
	assert.Equal(t, "A Paper", ds.Metadata.Title)
}

func TestFromSubmissionFiles_Build_RejectsFileWithoutContentLocation(t *testing.T) {
	t.Parallel()

	sub := domain.Submission{
		ID:    "s1",
		Files: []domain.File{{Name: "a.pdf"}},
	}

	_, err := FromSubmissionFiles{}.Build(context.Background(), sub)
	assert.Error(t, err)
}

func TestFromSubmissionFiles_Build_RejectsNoFiles(t *testing.T) {
	t.Parallel()

	_, err := FromSubmissionFiles{}.Build(context.Background(), domain.Submission{ID: "s1"})
	assert.Error(t, err)
}
