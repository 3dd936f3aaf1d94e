package registry

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/statusmap"
)

// rawDocument is the shape of the registry document as loaded by viper:
// one entry per target repository, protocol fields flattened under a
// "protocol.kind" discriminator instead of a true union, since neither
// YAML nor mapstructure natively decode tagged unions.
type rawDocument struct {
	Repositories []rawRepositoryConfig `mapstructure:"repositories"`
}

type rawRepositoryConfig struct {
	RepositoryKey            string            `mapstructure:"repositoryKey"`
	AssemblerID               string            `mapstructure:"assemblerId"`
	AssemblerArchive           string            `mapstructure:"assemblerArchive"`
	AssemblerCompression       string            `mapstructure:"assemblerCompression"`
	AssemblerChecksums        []string          `mapstructure:"assemblerChecksums"`
	DepositStatusProcessorID   string            `mapstructure:"depositStatusProcessorId"`
	FollowRedirects            *bool             `mapstructure:"followRedirects"`
	SettleIntervalMS           int               `mapstructure:"settleIntervalMs"`
	StatementURLRewritePrefix  string            `mapstructure:"statementUrlRewritePrefix"`
	StatementURLRewriteReplace string            `mapstructure:"statementUrlRewriteReplacement"`
	AuthRealms                 []rawAuthRealm    `mapstructure:"authRealms"`
	StatusMapping              map[string]string `mapstructure:"statusMapping"`
	StatusMappingDefault       string            `mapstructure:"statusMappingDefault"`

	Protocol rawProtocolBinding `mapstructure:"protocol"`
}

type rawAuthRealm struct {
	BaseURL  string `mapstructure:"baseUrl"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type rawProtocolBinding struct {
	Kind string `mapstructure:"kind"`

	BaseDir         string `mapstructure:"baseDir"`
	Overwrite       bool   `mapstructure:"overwrite"`
	CreateIfMissing bool   `mapstructure:"createIfMissing"`

	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DefaultDir string `mapstructure:"defaultDir"`
	Mode       string `mapstructure:"mode"`
	Type       string `mapstructure:"type"`
	Passive    bool   `mapstructure:"passive"`

	ServiceDocURL        string            `mapstructure:"serviceDocUrl"`
	DefaultCollectionURL string            `mapstructure:"defaultCollectionUrl"`
	OnBehalfOf           string            `mapstructure:"onBehalfOf"`
	CollectionHints      map[string]string `mapstructure:"collectionHints"`
}

// statusValueTable maps the internal status tokens a status-mapping
// document may name as values ("SUBMITTED", "ACCEPTED", "REJECTED",
// "FAILED") onto DepositStatus; the document's external-status keys are
// used verbatim.
var statusValueTable = map[string]domain.DepositStatus{
	"SUBMITTED": domain.DepositStatusSubmitted,
	"ACCEPTED":  domain.DepositStatusAccepted,
	"REJECTED":  domain.DepositStatusRejected,
	"FAILED":    domain.DepositStatusFailed,
}

// LoadDocument reads a registry document from path (YAML or JSON, detected
// by extension) using viper, and builds a Registry from it.
func LoadDocument(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("registry: reading document %s: %w", path, err)
	}

	var doc rawDocument
	if err := v.Unmarshal(&doc, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("registry: decoding document %s: %w", path, err)
	}

	configs := make([]RepositoryConfig, 0, len(doc.Repositories))
	for _, raw := range doc.Repositories {
		cfg, err := raw.toRepositoryConfig()
		if err != nil {
			return nil, fmt.Errorf("registry: repository %q: %w", raw.RepositoryKey, err)
		}

		configs = append(configs, cfg)
	}

	return New(configs), nil
}

func (raw rawRepositoryConfig) toRepositoryConfig() (RepositoryConfig, error) {
	binding, err := raw.Protocol.toProtocolBinding()
	if err != nil {
		return RepositoryConfig{}, err
	}

	byURI := make(map[string]domain.DepositStatus, len(raw.StatusMapping))
	for uri, token := range raw.StatusMapping {
		status, ok := statusValueTable[token]
		if !ok {
			return RepositoryConfig{}, fmt.Errorf("statusMapping: unrecognized status token %q for %q", token, uri)
		}

		byURI[uri] = status
	}

	var def domain.DepositStatus
	hasDefault := raw.StatusMappingDefault != ""
	if hasDefault {
		status, ok := statusValueTable[raw.StatusMappingDefault]
		if !ok {
			return RepositoryConfig{}, fmt.Errorf("statusMappingDefault: unrecognized status token %q", raw.StatusMappingDefault)
		}
		def = status
	}

	followRedirects := true
	if raw.FollowRedirects != nil {
		followRedirects = *raw.FollowRedirects
	}

	authRealms := make([]BasicAuthRealm, 0, len(raw.AuthRealms))
	for _, r := range raw.AuthRealms {
		authRealms = append(authRealms, BasicAuthRealm{BaseURL: r.BaseURL, User: r.User, Password: r.Password})
	}

	settle := time.Duration(raw.SettleIntervalMS) * time.Millisecond

	return RepositoryConfig{
		RepositoryKey: raw.RepositoryKey,
		AssemblerID:   raw.AssemblerID,
		AssemblerOptions: AssemblerOptions{
			Archive:            raw.AssemblerArchive,
			Compression:        raw.AssemblerCompression,
			ChecksumAlgorithms: raw.AssemblerChecksums,
		},
		ProtocolBinding:                binding,
		AuthRealms:                     authRealms,
		StatusMapping:                  statusmap.New(byURI, def, hasDefault),
		DepositStatusProcessorID:       raw.DepositStatusProcessorID,
		FollowRedirects:                followRedirects,
		SettleInterval:                 settle,
		StatementURLRewritePrefix:      raw.StatementURLRewritePrefix,
		StatementURLRewriteReplacement: raw.StatementURLRewriteReplace,
	}, nil
}

func (raw rawProtocolBinding) toProtocolBinding() (ProtocolBinding, error) {
	switch ProtocolKind(raw.Kind) {
	case ProtocolFilesystem:
		return ProtocolBinding{
			Kind: ProtocolFilesystem,
			Filesystem: FilesystemBinding{
				BaseDir:         raw.BaseDir,
				Overwrite:       raw.Overwrite,
				CreateIfMissing: raw.CreateIfMissing,
			},
		}, nil
	case ProtocolFTP:
		return ProtocolBinding{
			Kind: ProtocolFTP,
			FTP: FTPBinding{
				Host:       raw.Host,
				Port:       raw.Port,
				User:       raw.User,
				Password:   raw.Password,
				DefaultDir: raw.DefaultDir,
				Mode:       raw.Mode,
				Type:       raw.Type,
				Passive:    raw.Passive,
			},
		}, nil
	case ProtocolSwordV2:
		return ProtocolBinding{
			Kind: ProtocolSwordV2,
			SwordV2: SwordV2Binding{
				ServiceDocURL:        raw.ServiceDocURL,
				DefaultCollectionURL: raw.DefaultCollectionURL,
				User:                 raw.User,
				Password:             raw.Password,
				OnBehalfOf:           raw.OnBehalfOf,
				CollectionHints:      raw.CollectionHints,
			},
		}, nil
	default:
		return ProtocolBinding{}, fmt.Errorf("protocol: unrecognized kind %q", raw.Kind)
	}
}
