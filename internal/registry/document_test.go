package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
)

const sampleDocument = `
repositories:
  - repositoryKey: jscholarship
    assemblerId: bagit
    assemblerArchive: zip
    assemblerCompression: deflate
    depositStatusProcessorId: atom-statement
    settleIntervalMs: 5000
    statementUrlRewritePrefix: "http://internal/"
    statementUrlRewriteReplacement: "https://external.example.org/"
    authRealms:
      - baseUrl: "http://internal/"
        user: depositor
        password: secret
    statusMapping:
      "http://dspace.org/state/archived": ACCEPTED
      "http://dspace.org/state/withdrawn": REJECTED
    statusMappingDefault: SUBMITTED
    protocol:
      kind: swordv2
      serviceDocUrl: "http://internal/servicedocument"
      defaultCollectionUrl: "http://internal/collection/1"
      user: depositor
      password: secret
  - repositoryKey: nihms-ftp
    assemblerId: nihms-native
    protocol:
      kind: ftp
      host: ftp.example.gov
      port: 21
      user: anonymous
      passive: true
`

func writeTempDocument(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "repositories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadDocument_DecodesSwordV2AndFTP(t *testing.T) {
	t.Parallel()

	path := writeTempDocument(t, sampleDocument)

	reg, err := LoadDocument(path)
	require.NoError(t, err)

	sword, ok := reg.Get("jscholarship")
	require.True(t, ok)
	assert.Equal(t, ProtocolSwordV2, sword.ProtocolBinding.Kind)
	assert.Equal(t, "http://internal/servicedocument", sword.ProtocolBinding.SwordV2.ServiceDocURL)
	assert.Equal(t, "bagit", sword.AssemblerID)

	status, ok := sword.StatusMapping.Lookup("http://dspace.org/state/archived")
	assert.True(t, ok)
	assert.Equal(t, domain.DepositStatusAccepted, status)

	realm, ok := sword.AuthRealmFor("http://internal/servicedocument")
	require.True(t, ok)
	assert.Equal(t, "depositor", realm.User)

	rewritten := sword.RewriteStatementURL("http://internal/statement/1")
	assert.Equal(t, "https://external.example.org/statement/1", rewritten)

	ftp, ok := reg.Get("nihms-ftp")
	require.True(t, ok)
	assert.Equal(t, ProtocolFTP, ftp.ProtocolBinding.Kind)
	assert.Equal(t, "ftp.example.gov", ftp.ProtocolBinding.FTP.Host)
	assert.True(t, ftp.ProtocolBinding.FTP.Passive)
	assert.True(t, ftp.FollowRedirects, "followRedirects should default to true when absent")
}

func TestLoadDocument_UnrecognizedProtocolKind(t *testing.T) {
	t.Parallel()

	path := writeTempDocument(t, `
repositories:
  - repositoryKey: bad
    protocol:
      kind: smtp
`)

	_, err := LoadDocument(path)
	assert.Error(t, err)
}

func TestLoadDocument_UnrecognizedStatusToken(t *testing.T) {
	t.Parallel()

	path := writeTempDocument(t, `
repositories:
  - repositoryKey: bad
    protocol:
      kind: filesystem
      baseDir: /tmp
    statusMapping:
      "http://x/archived": NOT_A_REAL_STATUS
`)

	_, err := LoadDocument(path)
	assert.Error(t, err)
}

func TestRepositoryConfig_RewriteStatementURL_NoPrefixConfigured(t *testing.T) {
	t.Parallel()

	cfg := RepositoryConfig{}
	assert.Equal(t, "http://x/statement/1", cfg.RewriteStatementURL("http://x/statement/1"))
}
