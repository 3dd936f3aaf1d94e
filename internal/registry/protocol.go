package registry

// ProtocolKind tags which variant of ProtocolBinding is populated.
type ProtocolKind string

const (
	ProtocolFilesystem ProtocolKind = "filesystem"
	ProtocolFTP        ProtocolKind = "ftp"
	ProtocolSwordV2    ProtocolKind = "swordv2"
)

// FilesystemBinding configures a local/NFS-mounted drop directory target.
type FilesystemBinding struct {
	BaseDir         string
	Overwrite       bool
	CreateIfMissing bool
}

// FTPBinding configures an FTP transport target.
type FTPBinding struct {
	Host       string
	Port       int
	User       string
	Password   string
	DefaultDir string
	Mode       string
	Type       string
	Passive    bool
}

// SwordV2Binding configures a SWORDv2 (AtomPub-over-HTTP) transport target.
type SwordV2Binding struct {
	ServiceDocURL       string
	DefaultCollectionURL string
	User                string
	Password            string
	OnBehalfOf          string
	CollectionHints     map[string]string
}

// ProtocolBinding is the tagged-union configuration of how packages reach a
// target repository. Exactly one of the Filesystem/FTP/SwordV2 fields is
// populated, selected by Kind.
type ProtocolBinding struct {
	Kind       ProtocolKind
	Filesystem FilesystemBinding
	FTP        FTPBinding
	SwordV2    SwordV2Binding
}
